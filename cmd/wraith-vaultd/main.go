package main

import (
	"flag"
	"fmt"
	"net"
	"os"

	"google.golang.org/grpc"

	"github.com/dmaynor/WraithSpec/vault"
	"github.com/dmaynor/WraithSpec/vault/grpcvault"
	"github.com/dmaynor/WraithSpec/vault/localfs"
	"github.com/dmaynor/WraithSpec/vault/memvault"
)

func main() {
	fs := flag.NewFlagSet("wraith-vaultd", flag.ExitOnError)
	listen := fs.String("listen", "127.0.0.1:7799", "listen address")
	backend := fs.String("backend", "localfs", "vault backend: localfs or mem")
	dir := fs.String("dir", "", "profile directory for the localfs backend")

	_ = fs.Parse(os.Args[1:])

	var v vault.Vault
	switch *backend {
	case "localfs":
		lv, err := localfs.New(*dir)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		v = lv
	case "mem":
		v = memvault.New()
	default:
		fmt.Fprintf(os.Stderr, "unknown backend: %s\n", *backend)
		os.Exit(2)
	}

	lis, err := net.Listen("tcp", *listen)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer lis.Close()

	s := grpc.NewServer()
	grpcvault.RegisterProfileVaultServer(s, &grpcvault.Server{Vault: v})

	fmt.Fprintf(os.Stderr, "wraith-vaultd listening on %s (backend=%s)\n", lis.Addr().String(), *backend)
	if err := s.Serve(lis); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
