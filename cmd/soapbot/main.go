// Command soapbot runs the console-transfer workflow bot.
package main

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/bluehax/soapbot/bot"
	"github.com/bluehax/soapbot/bot/tracker"
	"github.com/bluehax/soapbot/core/bootstrap"
	"github.com/bluehax/soapbot/core/cmd"
	coreconfig "github.com/bluehax/soapbot/core/config"
)

type carrier struct {
	cfg *coreconfig.Config
}

func (c carrier) CoreConfig() *coreconfig.Config { return c.cfg }

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	err := cmd.Run(cmd.Options{
		ConfigEnvVar:      "SOAPBOT_CONFIG",
		DefaultConfigPath: "config.yaml",
		LoadConfig: func(path string) (cmd.ConfigCarrier, error) {
			cfg, err := coreconfig.Load(path)
			if err != nil {
				return nil, err
			}
			return carrier{cfg: cfg}, nil
		},
		Bootstrap: func(cc cmd.ConfigCarrier) (cmd.TelegramApp, error) {
			cfg := cc.CoreConfig()
			res, err := bootstrap.Run(bootstrap.Options[*tracker.Store]{
				Config: cfg,
				OpenStore: func(cfg *coreconfig.Config) (*tracker.Store, error) {
					return tracker.Open(cfg.Workflow.CountersFile)
				},
			})
			if err != nil {
				return nil, err
			}
			return bot.New(cfg, res.Store)
		},
	})
	if err != nil {
		log.Fatalf("soapbot: %v", err)
	}
}
