package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Publish(ctx context.Context) error
	ConfigShow(ctx context.Context) error
	ConfigImport(ctx context.Context, path string) error
	VKRefresh(ctx context.Context) error
	Logout(ctx context.Context) error
}

// runREPL reads commands line by line and dispatches them to a. It returns
// on scanner EOF or on "exit"/"quit".
//
//	Not logged in:
//	  help, register, login, exit | quit
//
//	Logged in:
//	  help
//	  publish                 compose a post and publish it everywhere enabled
//	  config show             print the destinations (no secrets)
//	  config import <file>    replace the config with a JSON document
//	  vk-refresh              exchange the VK refresh token
//	  logout, exit | quit
//
// Handler errors are printed and the loop continues.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("cp%s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		if cmd == "exit" || cmd == "quit" {
			printlnFn("Bye!")
			return
		}

		var err error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: publish, config show, config import <file>, vk-refresh, logout, exit")
			} else {
				printlnFn("Available commands: register, login, exit")
			}

		case "register":
			err = a.Register(ctx)

		case "login":
			err = a.Login(ctx)

		case "publish", "p":
			err = requireLogin(a, func() error { return a.Publish(ctx) })

		case "config":
			err = requireLogin(a, func() error { return configCommand(ctx, a, args) })

		case "vk-refresh":
			err = requireLogin(a, func() error { return a.VKRefresh(ctx) })

		case "logout":
			err = a.Logout(ctx)

		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			printlnFn("error:", err)
		}
	}
}

func configCommand(ctx context.Context, a execIface, args []string) error {
	if len(args) == 0 {
		printlnFn("Usage: config show | config import <file>")
		return nil
	}
	switch args[0] {
	case "show":
		return a.ConfigShow(ctx)
	case "import":
		if len(args) < 2 {
			printlnFn("Usage: config import <file>")
			return nil
		}
		return a.ConfigImport(ctx, args[1])
	default:
		printlnFn("Unknown config command:", args[0])
		return nil
	}
}

func requireLogin(a execIface, fn func() error) error {
	if !a.isLoggedIn() {
		printlnFn("Please login first")
		return nil
	}
	return fn()
}
