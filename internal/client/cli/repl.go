package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/travelease/internal/client/failure"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

// execIface is the command surface of the REPL. App implements it; tests
// provide a stub.
type execIface interface {
	isLoggedIn() bool
	takeIntended() (string, bool)
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	List(ctx context.Context, args []string) error
	Show(ctx context.Context, args []string) error
	Mine(ctx context.Context) error
	Add(ctx context.Context) error
	Edit(ctx context.Context, args []string) error
	Delete(ctx context.Context, args []string) error
	Book(ctx context.Context, args []string) error
	Bookings(ctx context.Context) error
}

const (
	helpGuest  = "Available commands: list, show <id>, register, login, add, book <id>, help, exit"
	helpMember = "Available commands: list, show <id>, mine, add, edit <id>, delete <id>, book <id>, bookings, whoami, logout, help, exit"
)

// runREPL reads commands from reader until EOF or "exit". The prompt
// shows statusFn(). Command errors are reported and the loop continues.
// After a successful login or register, a command that was waiting for a
// signed-in user is run.
//
//	list [category=<c>] [location=<l>] [sort=none|name_asc|price_asc|price_desc|category_asc]
//	show <id>       listing details
//	mine            listings you own
//	add             create a listing
//	edit <id>       change one of your listings
//	delete <id>     remove one of your listings
//	book <id>       request a booking
//	bookings        your booking requests
//	register | login | logout | whoami
//	exit | quit
//
// The reader is shared with the command prompts, so it is read a line at a
// time rather than through a bufio.Scanner.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("travelease %s> ", statusFn()))
		line, err := reader.ReadString('\n')
		if line == "" && err != nil {
			return
		}
		if quit := dispatch(ctx, a, line); quit {
			return
		}
	}
}

func dispatch(ctx context.Context, a execIface, line string) bool {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return false
	}
	cmd, args := parts[0], parts[1:]

	var err error
	switch cmd {
	case "help":
		if a.isLoggedIn() {
			printlnFn(helpMember)
		} else {
			printlnFn(helpGuest)
		}

	case "register":
		err = a.Register(ctx)
		if err == nil {
			resume(ctx, a)
		}

	case "login":
		err = a.Login(ctx)
		if err == nil {
			resume(ctx, a)
		}

	case "logout":
		err = a.Logout(ctx)

	case "whoami":
		err = a.WhoAmI(ctx)

	case "l", "list":
		err = a.List(ctx, args)

	case "show":
		err = a.Show(ctx, args)

	case "mine":
		err = a.Mine(ctx)

	case "add":
		err = a.Add(ctx)

	case "edit":
		err = a.Edit(ctx, args)

	case "delete":
		err = a.Delete(ctx, args)

	case "book":
		err = a.Book(ctx, args)

	case "bookings":
		err = a.Bookings(ctx)

	case "exit", "quit":
		printlnFn("Bye!")
		return true

	default:
		printlnFn("Unknown command:", cmd)
	}

	if err != nil {
		printlnFn("Error:", failure.Message(err))
	}
	return false
}

func resume(ctx context.Context, a execIface) {
	if line, ok := a.takeIntended(); ok {
		printlnFn("Continuing:", line)
		dispatch(ctx, a, line)
	}
}
