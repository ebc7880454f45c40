package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/fx"

	"github.com/hfarah/noor/internal/config"
	"github.com/hfarah/noor/internal/daemon"
	"github.com/hfarah/noor/internal/profile"
)

func main() {
	profileFlag := flag.String("profile", "", "profile name (overrides config default)")
	addrFlag := flag.String("addr", "", "listen address (overrides config http_addr)")
	flag.Parse()

	profileName := profile.Resolve(*profileFlag)
	if err := profile.ValidateName(profileName); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	cfg := config.LoadOrDefault(profile.ConfigPath())
	addr := cfg.HTTPAddr
	if *addrFlag != "" {
		addr = *addrFlag
	}

	app := fx.New(
		daemon.Module(daemon.Params{
			ProfileName: profileName,
			HTTPAddr:    addr,
			Config:      cfg,
		}),
	)

	app.Run()
}
