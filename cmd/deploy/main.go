// Command deploy stands up the button game family on an in-memory
// chain: the access control registry, the shared reward token, and one
// game instance per manifest entry, with roles granted and pools
// minted the way a production orchestrator would sequence it. With
// --demo it also plays each round to death and reports the payouts.
package main

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"thebutton/chain"
	"thebutton/codec"
	"thebutton/contract/accesscontrol"
	"thebutton/contract/button"
	"thebutton/contract/token"
	"thebutton/sdk"
)

func main() {
	var (
		configPath string
		demo       bool
		verbose    bool
	)
	pflag.StringVarP(&configPath, "config", "c", "", "deployment manifest (yaml)")
	pflag.BoolVar(&demo, "demo", false, "play each round to death after deploying")
	pflag.BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	pflag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		With().Timestamp().Logger()
	if verbose {
		log = log.Level(zerolog.DebugLevel)
	} else {
		log = log.Level(zerolog.InfoLevel)
	}

	cfg := defaultConfig()
	if configPath != "" {
		loaded, err := loadConfig(configPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", configPath).Msg("bad manifest")
		}
		cfg = loaded
	}

	d := &deployment{
		chain:    chain.New(),
		log:      log,
		deployer: sdk.Address(cfg.Deployer),
		operator: sdk.Address(cfg.Operator),
	}
	d.chain.SetBlock(1, uint64(time.Now().UTC().Unix()))

	if err := d.run(cfg); err != nil {
		log.Fatal().Err(err).Msg("deployment failed")
	}
	if demo {
		if err := d.playDemo(); err != nil {
			log.Fatal().Err(err).Msg("demo failed")
		}
	}
}

type deployment struct {
	chain    *chain.Chain
	log      zerolog.Logger
	deployer sdk.Address
	operator sdk.Address

	accessControl sdk.Address
	token         sdk.Address
	games         []deployedGame
}

type deployedGame struct {
	addr     sdk.Address
	variant  button.Variant
	lifetime uint64
	players  []sdk.Address
}

// run sequences the family bring-up: registry first, then the token
// under its Initializer grant, then each game with its roles, pool,
// and whitelist.
func (d *deployment) run(cfg *Config) error {
	acCode := d.chain.Upload("access_control", []byte("access-control-v1"), accesscontrol.New)
	ac, err := d.chain.Instantiate(acCode, d.deployer, "")
	if err != nil {
		return err
	}
	d.accessControl = ac
	d.log.Info().Stringer("address", ac).Msg("access control deployed")

	tokenCode := d.chain.Upload("button_token", []byte("button-token-v1"), token.New)
	if err := d.grant(d.deployer, accesscontrol.Initializer(tokenCode)); err != nil {
		return err
	}
	supply := cfg.Supply
	if supply == "" {
		supply = "0"
	}
	tok, err := d.chain.Instantiate(tokenCode, d.deployer, ac.String()+"|"+supply)
	if err != nil {
		return err
	}
	d.token = tok
	if err := d.grant(d.operator, accesscontrol.Admin(tok)); err != nil {
		return err
	}
	if err := d.grant(d.deployer, accesscontrol.Owner(tok)); err != nil {
		return err
	}
	d.log.Info().Stringer("address", tok).Msg("token deployed")

	gameCodes := map[button.Variant]sdk.CodeHash{}
	for _, gc := range cfg.Games {
		v, err := button.ParseVariant(gc.Variant)
		if err != nil {
			return err
		}
		code, ok := gameCodes[v]
		if !ok {
			code = d.chain.Upload(v.String(), []byte(v.String()+"-v1"), button.Factory(v))
			if err := d.grant(d.deployer, accesscontrol.Initializer(code)); err != nil {
				return err
			}
			gameCodes[v] = code
		}
		game, err := d.deployGame(code, v, gc)
		if err != nil {
			return err
		}
		d.games = append(d.games, game)
		d.log.Info().
			Stringer("address", game.addr).
			Str("variant", gc.Variant).
			Uint64("lifetime", gc.Lifetime).
			Str("pool", gc.Pool).
			Int("players", len(gc.Players)).
			Msg("game deployed")
	}
	return nil
}

func (d *deployment) deployGame(code sdk.CodeHash, v button.Variant, gc GameConfig) (deployedGame, error) {
	payload := d.accessControl.String() + "|" + d.token.String() + "|" + codec.FormatU64(gc.Lifetime)
	if gc.StartDelay > 0 {
		payload += "|" + codec.FormatU64(gc.StartDelay)
	}
	addr, err := d.chain.Instantiate(code, d.deployer, payload)
	if err != nil {
		return deployedGame{}, err
	}
	if err := d.grant(d.operator, accesscontrol.Admin(addr)); err != nil {
		return deployedGame{}, err
	}
	if err := d.grant(d.deployer, accesscontrol.Owner(addr)); err != nil {
		return deployedGame{}, err
	}
	if _, err := d.chain.Call(d.token, d.operator, "mint", addr.String()+"|"+gc.Pool); err != nil {
		return deployedGame{}, err
	}

	players := make([]sdk.Address, 0, len(gc.Players))
	for _, p := range gc.Players {
		players = append(players, sdk.Address(p))
	}
	if len(players) > 0 {
		joined := make([]string, len(players))
		for i, p := range players {
			joined[i] = p.String()
		}
		if _, err := d.chain.Call(addr, d.operator, "bulk_allow", strings.Join(joined, "|")); err != nil {
			return deployedGame{}, err
		}
	}
	return deployedGame{addr: addr, variant: v, lifetime: gc.Lifetime, players: players}, nil
}

func (d *deployment) grant(account sdk.Address, role accesscontrol.Role) error {
	_, err := d.chain.Call(d.accessControl, d.deployer, "grant_role",
		account.String()+"|"+role.String())
	return err
}

// playDemo drives each deployed round: every whitelisted player
// presses once, time jumps past the deadline, and one more press
// triggers death and the payout.
func (d *deployment) playDemo() error {
	for _, g := range d.games {
		if len(g.players) == 0 {
			d.log.Warn().Stringer("game", g.addr).Msg("no players, skipping demo round")
			continue
		}
		for i, p := range g.players {
			d.chain.Advance(1, g.lifetime/uint64(len(g.players)+1))
			if _, err := d.chain.Call(g.addr, p, "press", ""); err != nil {
				return err
			}
			d.log.Debug().Stringer("game", g.addr).Stringer("player", p).Int("press", i+1).Msg("pressed")
		}
		d.chain.Advance(1, g.lifetime+1)
		if _, err := d.chain.Call(g.addr, g.players[0], "press", ""); err != nil {
			return err
		}

		for _, evt := range d.chain.Events(g.addr) {
			if evt.Type != "buttonDied" {
				continue
			}
			d.log.Info().
				Stringer("game", g.addr).
				Str("variant", g.variant.String()).
				Str("pressiah", evt.Attributes["pressiah"]).
				Str("pool", evt.Attributes["pool"]).
				Str("presses", evt.Attributes["presses"]).
				Msg("round over")
		}
		for _, p := range g.players {
			balance, err := d.chain.Query(d.token, p, "balance_of", p.String())
			if err != nil {
				return err
			}
			d.log.Info().Stringer("player", p).Str("balance", balance).Msg("payout")
		}
	}
	return nil
}
