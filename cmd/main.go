package main

import (
	"github.com/corray333/gamesbakery/internal/app"
	"github.com/corray333/gamesbakery/internal/config"
)

func main() {
	config.MustInit()
	app.MustNewApp().Run()
}
