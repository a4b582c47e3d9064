package main

import (
	"context"
	"fmt"

	"github.com/phuanduong/ledger/config"
	"github.com/phuanduong/ledger/routes"
	"github.com/phuanduong/ledger/server"
)

func main() {
	if err := config.InitializeConfig(); err != nil {
		fmt.Println(err.Error())
		return
	}

	publicKey, err := config.JWTPublicKey()
	if err != nil {
		config.Logger.Fatalf("failed to load jwt public key: %v", err)
	}

	engine, err := server.NewEngine(context.Background())
	if err != nil {
		config.Logger.Fatalf("failed to start engine: %v", err)
	}

	r := routes.SetupRouter(engine, publicKey)

	if err := r.Listen(":" + config.GetEnv("HTTP_PORT", "3000")); err != nil {
		config.Logger.Fatalf("failed to serve: %v", err)
	}
}
