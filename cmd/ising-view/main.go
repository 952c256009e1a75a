//go:build ebiten

package main

import (
	"errors"
	"flag"
	"log"

	"github.com/hajimehoshi/ebiten/v2"

	"ising-mc/internal/app"
	"ising-mc/internal/chain"
)

func main() {
	cfg := app.NewConfig()
	cfg.Bind(flag.CommandLine)
	flag.Parse()

	c, err := chain.New(cfg.Chain())
	if err != nil {
		log.Fatal(err)
	}

	game := app.New(c, cfg.Scale, cfg.PanelWidth, cfg.TPS, cfg.Seed)
	size := c.Size()

	ebiten.SetWindowTitle("ising-view " + c.Params().String())
	ebiten.SetWindowSize(size.W*cfg.Scale+cfg.PanelWidth, size.H*cfg.Scale)

	if err := ebiten.RunGame(game); err != nil && !errors.Is(err, ebiten.Termination) {
		log.Fatal(err)
	}
}
