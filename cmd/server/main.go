package main

import (
	"context"
	"log"

	_ "github.com/joho/godotenv/autoload"

	"github.com/deliverhub/deliverhub/internal/server"
	"github.com/deliverhub/deliverhub/internal/server/config"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := server.NewApp(ctx, cfg)

	if err != nil {
		log.Printf("%v", err)
		return
	}

	app.Run()

}
