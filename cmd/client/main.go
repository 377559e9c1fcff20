// Package main runs the interactive DevConnect client: a shell over the
// session manager, the suggestion feed and the connection store.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/avetrov/DevConnect/internal/client/connections"
	"github.com/avetrov/DevConnect/internal/client/credstore"
	"github.com/avetrov/DevConnect/internal/client/feed"
	"github.com/avetrov/DevConnect/internal/client/gateway"
	"github.com/avetrov/DevConnect/internal/client/session"
	"github.com/avetrov/DevConnect/internal/config"
	"github.com/avetrov/DevConnect/internal/logger"
	"github.com/avetrov/DevConnect/internal/models"
	"go.uber.org/zap"
)

var (
	version   string
	buildDate string
)

// printUser renders a one-line user summary.
func printUser(u models.User) {
	fmt.Printf("%s %s (@%s)", u.FirstName, u.LastName, u.Username)
	if len(u.Skills) > 0 {
		fmt.Printf("  [%s]", strings.Join(u.Skills, ", "))
	}
	fmt.Println()
}

// printRequests renders a projection listing with the counterpart of
// each entry relative to the current user.
func printRequests(list []models.ConnectionRequest, selfID string) {
	if len(list) == 0 {
		fmt.Println("(none)")
		return
	}
	for _, req := range list {
		other := req.Counterpart(selfID)
		fmt.Printf("%s  %s %s (@%s)\n", req.ID, other.FirstName, other.LastName, other.Username)
	}
}

// repl runs the interactive shell loop.
func repl(mgr *session.Manager, cursor *feed.Cursor, conns *connections.Store) {
	ctx := context.Background()
	scanner := bufio.NewScanner(os.Stdin)

	if mgr.RestoreSession(ctx) {
		fmt.Printf("Welcome back, @%s\n", mgr.CurrentUser().Username)
	} else {
		fmt.Println("No session found. Use: login <email> <password>")
	}

	selfID := func() string {
		if u := mgr.CurrentUser(); u != nil {
			return u.ID
		}
		return ""
	}

	for {
		fmt.Print("devconnect> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		args := strings.Fields(line)
		if len(args) == 0 {
			continue
		}
		switch args[0] {
		case "help":
			fmt.Println("Available commands: help, login <email> <password>, logout, whoami,")
			fmt.Println("  feed, reload-feed, connect, ignore, block,")
			fmt.Println("  received, sent, mutual, blocked,")
			fmt.Println("  accept <id>, reject <id>, cancel <id>, disconnect <id>, unblock <id>, exit")
		case "login":
			if len(args) < 3 {
				fmt.Println("Usage: login <email> <password>")
				continue
			}
			if err := mgr.Login(ctx, args[1], args[2]); err != nil {
				fmt.Println("Login failed:", err)
				continue
			}
			fmt.Printf("Logged in as @%s\n", mgr.CurrentUser().Username)
		case "logout":
			mgr.Logout(ctx)
			fmt.Println("Logged out")
		case "whoami":
			if u := mgr.CurrentUser(); u != nil {
				printUser(*u)
			} else {
				fmt.Println("Not logged in")
			}
		case "feed":
			if err := cursor.FetchIfAbsent(ctx); err != nil {
				fmt.Println("Failed to fetch suggestions:", err)
				continue
			}
			if u, ok := cursor.Current(); ok {
				printUser(u)
			} else {
				fmt.Println("No more suggestions. Use reload-feed to fetch again.")
			}
		case "reload-feed":
			if err := cursor.Reload(ctx); err != nil {
				fmt.Println("Failed to reload suggestions:", err)
			}
		case "connect", "ignore", "block":
			u, ok := cursor.Current()
			if !ok {
				fmt.Println("No suggestion to act on")
				continue
			}
			var err error
			switch args[0] {
			case "connect":
				err = conns.Send(ctx, u.ID)
			case "block":
				err = conns.Block(ctx, u.ID)
			default:
				conns.Ignore(u.ID)
			}
			if err != nil {
				fmt.Println("Action failed:", err)
				continue
			}
			if next, ok := cursor.Current(); ok {
				fmt.Print("Next: ")
				printUser(next)
			} else {
				fmt.Println("No more suggestions")
			}
		case "received", "sent", "mutual", "blocked":
			var list []models.ConnectionRequest
			var err error
			switch args[0] {
			case "received":
				list, err = conns.Received(ctx)
			case "sent":
				list, err = conns.Sent(ctx)
			case "mutual":
				list, err = conns.Mutual(ctx)
			default:
				list, err = conns.Blocked(ctx)
			}
			if err != nil {
				fmt.Println("Failed to fetch:", err)
				continue
			}
			printRequests(list, selfID())
		case "accept", "reject", "cancel", "disconnect", "unblock":
			if len(args) < 2 {
				fmt.Printf("Usage: %s <id>\n", args[0])
				continue
			}
			var err error
			switch args[0] {
			case "accept":
				err = conns.Accept(ctx, args[1])
			case "reject":
				err = conns.Reject(ctx, args[1])
			case "cancel":
				err = conns.Cancel(ctx, args[1])
			case "disconnect":
				err = conns.Disconnect(ctx, args[1])
			default:
				err = conns.Unblock(ctx, args[1])
			}
			if err != nil {
				fmt.Println("Action failed:", err)
			} else {
				fmt.Println("Done")
			}
		case "exit":
			fmt.Println("Bye")
			return
		default:
			fmt.Println("Unknown command. Type 'help' for a list of commands.")
		}
	}
}

func main() {
	options := config.Parse()

	log := logger.New()
	if err := log.Init(options.LogLevel); err != nil {
		fmt.Fprintln(os.Stderr, "failed to init logger:", err)
		os.Exit(1)
	}
	defer func() { _ = log.Log.Sync() }()

	if version != "" {
		fmt.Printf("DevConnect Client\nVersion: %s\nBuild Date: %s\n", version, buildDate)
	}

	creds := credstore.New(options.CredentialsFile)
	mgr := session.New(creds, log.Log)
	gw, err := gateway.New(options.BaseURL, mgr, log.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to init gateway:", err)
		os.Exit(1)
	}
	mgr.SetGateway(gw)

	if d, err := time.ParseDuration(options.Timeout); err == nil {
		gw.SetTimeout(d)
	} else {
		log.Log.Warn("invalid request timeout, keeping default", zap.String("timeout", options.Timeout))
	}

	cursor := feed.New(gw, log.Log)
	conns := connections.New(gw, cursor, log.Log)

	repl(mgr, cursor, conns)
}
