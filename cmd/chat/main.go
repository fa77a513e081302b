package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/akulikov-dev/localchat/internal/errs"
	"github.com/akulikov-dev/localchat/internal/kvstore"
	"github.com/akulikov-dev/localchat/internal/kvstore/file"
	"github.com/akulikov-dev/localchat/internal/kvstore/postgres"
	kvredis "github.com/akulikov-dev/localchat/internal/kvstore/redis"
	"github.com/akulikov-dev/localchat/internal/migrate"
	"github.com/akulikov-dev/localchat/internal/model"
	"github.com/akulikov-dev/localchat/internal/repository"
	"github.com/akulikov-dev/localchat/internal/service"
	"github.com/akulikov-dev/localchat/internal/syncloop"
)

func usage() {
	fmt.Fprintf(os.Stderr, `chat is a local-first messenger client.

Usage:
  chat [global flags] <command> [command flags]

Commands:
  signup        create an account (-name, -email, -user, -pass)
  login         start a session (-id username or email, -pass)
  logout        end the current session
  whoami        print the logged in user
  search        find users to add (-term, empty lists everyone)
  add           add a contact (-user)
  remove        remove a contact (-user)
  contacts      list contacts and groups with last messages
  group-new     create a group (-name, -members alice,bob)
  group-leave   leave a group (-id)
  history       print a conversation (-with user | -group id)
  send          send one message (-to user | -group id, -text)
  watch         open a live conversation (-with user | -group id)

Global flags:
  -store    backend: file, memory, postgres or redis (default file)
  -path     file backend document path
  -dsn      postgres backend connection string
  -redis    redis backend url
`)
	os.Exit(2)
}

func main() {
	storeKind := flag.String("store", "file", "storage backend")
	storePath := flag.String("path", file.DefaultPath(), "file backend path")
	dsn := flag.String("dsn", os.Getenv("DATABASE_DSN"), "postgres dsn")
	redisURL := flag.String("redis", os.Getenv("REDIS_URL"), "redis url")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
	}
	cmd := flag.Arg(0)
	args := flag.Args()[1:]

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	app, err := newApp(ctx, *storeKind, *storePath, *dsn, *redisURL)
	if err != nil {
		fail(err)
	}
	defer app.close()

	switch cmd {
	case "signup":
		fs := flag.NewFlagSet("signup", flag.ExitOnError)
		name := fs.String("name", "", "full name")
		email := fs.String("email", "", "email")
		user := fs.String("user", "", "username")
		pass := fs.String("pass", "", "password")
		fs.Parse(args)
		if *user == "" || *pass == "" || *email == "" {
			fmt.Fprintln(os.Stderr, "need -user, -email and -pass")
			os.Exit(1)
		}
		u, err := app.directory.Register(ctx, *name, *email, *user, *pass)
		if err != nil {
			fail(err)
		}
		fmt.Printf("registered %s, you can log in now\n", u.Username)

	case "login":
		fs := flag.NewFlagSet("login", flag.ExitOnError)
		id := fs.String("id", "", "username or email")
		pass := fs.String("pass", "", "password")
		fs.Parse(args)
		if *id == "" || *pass == "" {
			fmt.Fprintln(os.Stderr, "need -id and -pass")
			os.Exit(1)
		}
		u, err := app.directory.Authenticate(ctx, *id, *pass)
		if err != nil {
			fail(err)
		}
		if err := app.session.Set(ctx, u); err != nil {
			fail(err)
		}
		if err := app.presence.SetOnline(ctx, u.Username, true); err != nil {
			fail(err)
		}
		fmt.Printf("logged in as %s\n", u.Username)

	case "logout":
		u, err := app.session.Current(ctx)
		if err == nil {
			if err := app.presence.SetOnline(ctx, u.Username, false); err != nil {
				fail(err)
			}
		}
		if err := app.session.Clear(ctx); err != nil {
			fail(err)
		}
		fmt.Println("logged out")

	case "whoami":
		u := app.mustUser(ctx)
		fmt.Printf("%s (%s)\n", u.Username, u.Email)

	case "search":
		fs := flag.NewFlagSet("search", flag.ExitOnError)
		term := fs.String("term", "", "substring of username or email")
		fs.Parse(args)
		u := app.mustUser(ctx)
		found, err := app.directory.SearchUsers(ctx, u.Username, *term)
		if err != nil {
			fail(err)
		}
		if len(found) == 0 {
			fmt.Println("no users found")
			return
		}
		for _, f := range found {
			fmt.Printf("%s  %s\n", f.Username, f.Email)
		}

	case "add":
		fs := flag.NewFlagSet("add", flag.ExitOnError)
		peer := fs.String("user", "", "username to add")
		fs.Parse(args)
		if *peer == "" {
			fmt.Fprintln(os.Stderr, "need -user")
			os.Exit(1)
		}
		u := app.mustUser(ctx)
		if err := app.directory.AddContact(ctx, u.Username, *peer); err != nil {
			fail(err)
		}
		fmt.Printf("%s added to contacts\n", *peer)

	case "remove":
		fs := flag.NewFlagSet("remove", flag.ExitOnError)
		peer := fs.String("user", "", "username to remove")
		fs.Parse(args)
		if *peer == "" {
			fmt.Fprintln(os.Stderr, "need -user")
			os.Exit(1)
		}
		u := app.mustUser(ctx)
		if err := app.directory.RemoveContact(ctx, u.Username, *peer); err != nil {
			fail(err)
		}
		fmt.Printf("%s removed\n", *peer)

	case "contacts":
		u := app.mustUser(ctx)
		entries, err := app.conversations.Roster(ctx, u.Username)
		if err != nil {
			fail(err)
		}
		newTerminalRenderer(u.Username).RenderRoster(entries)

	case "group-new":
		fs := flag.NewFlagSet("group-new", flag.ExitOnError)
		name := fs.String("name", "", "group name")
		members := fs.String("members", "", "comma separated usernames")
		fs.Parse(args)
		u := app.mustUser(ctx)
		g, err := app.groups.Create(ctx, u.Username, *name, splitMembers(*members))
		if err != nil {
			fail(err)
		}
		fmt.Printf("created %s (%s)\n", g.Name, g.ID)

	case "group-leave":
		fs := flag.NewFlagSet("group-leave", flag.ExitOnError)
		id := fs.String("id", "", "group id")
		fs.Parse(args)
		if *id == "" {
			fmt.Fprintln(os.Stderr, "need -id")
			os.Exit(1)
		}
		u := app.mustUser(ctx)
		if err := app.groups.Leave(ctx, *id, u.Username); err != nil {
			fail(err)
		}
		fmt.Println("left the group")

	case "history":
		fs := flag.NewFlagSet("history", flag.ExitOnError)
		peer := fs.String("with", "", "contact username")
		groupID := fs.String("group", "", "group id")
		fs.Parse(args)
		u := app.mustUser(ctx)
		r := newTerminalRenderer(u.Username)
		switch {
		case *peer != "":
			msgs, err := app.conversations.Conversation(ctx, u.Username, *peer)
			if err != nil {
				fail(err)
			}
			r.RenderConversation(*peer, msgs)
			if err := app.conversations.MarkDisplayed(ctx, u.Username, *peer); err != nil {
				fail(err)
			}
		case *groupID != "":
			g, err := app.findGroup(ctx, u.Username, *groupID)
			if err != nil {
				fail(err)
			}
			msgs, err := app.conversations.GroupConversation(ctx, *groupID)
			if err != nil {
				fail(err)
			}
			r.RenderGroupConversation(g, msgs)
		default:
			fail(errs.ErrNoTargetSelected)
		}

	case "send":
		fs := flag.NewFlagSet("send", flag.ExitOnError)
		peer := fs.String("to", "", "contact username")
		groupID := fs.String("group", "", "group id")
		text := fs.String("text", "", "message text")
		fs.Parse(args)
		u := app.mustUser(ctx)
		switch {
		case *peer != "":
			err = app.conversations.AppendDirect(ctx, u.Username, *peer, *text)
		case *groupID != "":
			if _, err = app.findGroup(ctx, u.Username, *groupID); err == nil {
				err = app.conversations.AppendGroup(ctx, *groupID, u.Username, *text)
			}
		default:
			err = errs.ErrNoTargetSelected
		}
		if err != nil {
			fail(err)
		}
		fmt.Println("sent")

	case "watch":
		fs := flag.NewFlagSet("watch", flag.ExitOnError)
		peer := fs.String("with", "", "contact username")
		groupID := fs.String("group", "", "group id")
		fs.Parse(args)
		u := app.mustUser(ctx)
		if err := app.watch(ctx, u, *peer, *groupID); err != nil {
			fail(err)
		}

	default:
		usage()
	}
}

// app wires the storage backend into the services once per invocation.
type app struct {
	directory     service.Directory
	groups        service.Groups
	presence      service.Presence
	conversations service.Conversations
	session       *repository.Session
	log           *zap.Logger
	closeFns      []func()
}

func newApp(ctx context.Context, kind, path, dsn, redisURL string) (*app, error) {
	a := &app{}

	log, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}
	a.log = log
	a.closeFns = append(a.closeFns, func() { log.Sync() })

	var durable kvstore.Store
	switch kind {
	case "file":
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, err
		}
		durable, err = file.New(path)
		if err != nil {
			return nil, err
		}
	case "memory":
		durable = kvstore.NewMemory()
	case "postgres":
		if dsn == "" {
			return nil, errors.New("postgres backend needs -dsn")
		}
		if err := migrate.Up(ctx, dsn); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
		pg, err := postgres.New(ctx, dsn)
		if err != nil {
			return nil, err
		}
		a.closeFns = append(a.closeFns, pg.Close)
		durable = pg
	case "redis":
		if redisURL == "" {
			return nil, errors.New("redis backend needs -redis")
		}
		rd, err := kvredis.New(ctx, redisURL)
		if err != nil {
			return nil, err
		}
		a.closeFns = append(a.closeFns, func() { rd.Close() })
		durable = rd
	default:
		return nil, fmt.Errorf("unknown store %q", kind)
	}

	// The session lives next to the durable document so logins survive
	// between invocations of the same client, like a browser tab that stays
	// open. Remote backends still keep the session local to this machine.
	sessionStore, err := file.New(sessionPath(kind, path))
	if err != nil {
		return nil, err
	}
	stores := kvstore.NewDual(durable, sessionStore)

	users := repository.NewUsers(stores.Durable)
	contacts := repository.NewContacts(stores.Durable)
	groups := repository.NewGroups(stores.Durable)
	messages := repository.NewMessages(stores.Durable)
	status := repository.NewStatus(stores.Durable)

	a.directory = service.NewDirectory(users, contacts, messages)
	a.groups = service.NewGroups(groups, messages)
	a.presence = service.NewPresence(status)
	a.conversations = service.NewConversations(messages, contacts, groups, status)
	a.session = repository.NewSession(stores.Session)
	return a, nil
}

func sessionPath(kind, storePath string) string {
	if kind == "file" {
		return filepath.Join(filepath.Dir(storePath), "session.json")
	}
	return filepath.Join(filepath.Dir(file.DefaultPath()), "session.json")
}

func (a *app) close() {
	for i := len(a.closeFns) - 1; i >= 0; i-- {
		a.closeFns[i]()
	}
}

func (a *app) mustUser(ctx context.Context) model.User {
	u, err := a.session.Current(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "not logged in, run: chat login -id <user> -pass <password>")
		os.Exit(1)
	}
	return *u
}

func (a *app) findGroup(ctx context.Context, member, id string) (model.Group, error) {
	list, err := a.groups.List(ctx, member)
	if err != nil {
		return model.Group{}, err
	}
	for _, g := range list {
		if g.ID == id {
			return g, nil
		}
	}
	return model.Group{}, fmt.Errorf("group %s: %w", id, errs.ErrNotFound)
}

// watch runs the sync loop against the selected target and feeds typed lines
// into it until stdin closes or the process is interrupted.
func (a *app) watch(ctx context.Context, u model.User, peer, groupID string) error {
	loop := syncloop.New(u.Username, a.conversations, a.presence, newTerminalRenderer(u.Username), a.log)

	switch {
	case peer != "":
		loop.SelectContact(ctx, peer)
	case groupID != "":
		g, err := a.findGroup(ctx, u.Username, groupID)
		if err != nil {
			return err
		}
		loop.SelectGroup(ctx, g)
	default:
		return errs.ErrNoTargetSelected
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		loop.Run(ctx)
	}()

	fmt.Println("type a message and press enter, /quit to exit")
	sc := bufio.NewScanner(os.Stdin)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "/quit" {
			break
		}
		if line == "" {
			continue
		}
		loop.NoteTyping(ctx)
		if err := loop.Send(ctx, line); err != nil {
			a.log.Warn("send failed", zap.Error(err))
		}
	}
	cancel()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
	}
	return sc.Err()
}

func splitMembers(s string) []string {
	var out []string
	for _, m := range strings.Split(s, ",") {
		if m = strings.TrimSpace(m); m != "" {
			out = append(out, m)
		}
	}
	return out
}
