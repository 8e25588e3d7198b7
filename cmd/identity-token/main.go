package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/joho/godotenv"
	"github.com/jrsteele09/go-identity-client/identity"
	"github.com/jrsteele09/go-identity-client/internal/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type summary struct {
	TokenType  string    `json:"token_type"`
	Scopes     []string  `json:"scopes"`
	IssuedAt   time.Time `json:"issued_at"`
	ValidUntil time.Time `json:"valid_until"`
	Subject    string    `json:"subject,omitempty"`
	ClientID   string    `json:"client_id,omitempty"`
	Active     *bool     `json:"active,omitempty"`
}

func main() {
	envFile := flag.String("env", ".env", "environment file to load")
	introspect := flag.Bool("introspect", false, "introspect the token with the introspection client")
	watch := flag.Bool("watch", false, "keep refreshing the token until interrupted")
	flag.Parse()

	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Str("file", *envFile).Msg("could not load environment file")
	}

	if err := run(*introspect, *watch); err != nil {
		log.Fatal().Err(err).Msg("identity-token failed")
	}
}

func run(introspect, watch bool) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Msgf("Recovered from panic: %v", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	displayAppname(c.GetAppName())

	ctx, cancel := context.WithTimeout(context.Background(), c.GetConnectTimeout()+c.GetReadTimeout())
	defer cancel()

	client, err := identity.New(ctx, c, identity.WithLogger(log.Logger))
	if err != nil {
		return fmt.Errorf("identity.New: %w", err)
	}
	defer client.Close()

	accessToken, err := client.AccessToken(ctx)
	if err != nil {
		return fmt.Errorf("client.AccessToken: %w", err)
	}

	current := client.Holder.Current()
	s := summary{
		TokenType:  current.TokenType,
		Scopes:     current.Scopes,
		IssuedAt:   current.IssuedAt,
		ValidUntil: current.ValidUntil(),
	}
	if claims, err := current.Claims(); err == nil {
		s.Subject, _ = claims.GetSubject()
		if clientID, ok := claims["client_id"].(string); ok {
			s.ClientID = clientID
		}
	}

	if introspect {
		introspected, err := client.Introspector.Introspect(ctx, accessToken)
		if err != nil {
			return fmt.Errorf("Introspector.Introspect: %w", err)
		}
		active := true
		s.Active = &active
		s.Subject = introspected.Subject
		s.ClientID = introspected.ClientID
	}

	if err := printJSON(s); err != nil {
		return err
	}

	if watch {
		log.Info().Msg("watching token refreshes, press Ctrl+C to stop")
		waitForStopSignal()
	}
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("json.Encode: %w", err)
	}
	return nil
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
