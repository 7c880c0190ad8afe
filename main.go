package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog/log"

	capabilityx "github.com/johnfletcher78/antigravity-agent/agent/capability"
	contractx "github.com/johnfletcher78/antigravity-agent/agent/contract"
	memoryx "github.com/johnfletcher78/antigravity-agent/agent/memory"
	orchestratorx "github.com/johnfletcher78/antigravity-agent/agent/orchestrator"
	projectx "github.com/johnfletcher78/antigravity-agent/agent/project"
	configx "github.com/johnfletcher78/antigravity-agent/pkg/config"
	geminix "github.com/johnfletcher78/antigravity-agent/pkg/gemini"
	logx "github.com/johnfletcher78/antigravity-agent/pkg/logger"
	sqlitex "github.com/johnfletcher78/antigravity-agent/pkg/sqlite"
)

type AppConfig struct {
	UserID      string `envconfig:"USER_ID" split_words:"true" default:"bull"`
	ProjectName string `envconfig:"PROJECT_NAME" split_words:"true"`
	SpeechFile  string `envconfig:"SPEECH_FILE" split_words:"true"`
}

func main() {
	logx.Init(*configx.MustNew[logx.Config]("LOG"))

	appCfg := configx.MustNew[AppConfig]("AGENT")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db := sqlitex.MustOpen(*configx.MustNew[sqlitex.Config]("SQLITE"))
	defer db.Close()

	memStore, err := memoryx.NewStore(ctx, db)
	if err != nil {
		log.Fatal().Err(err).Msg("init memory store")
	}
	projStore, err := projectx.NewStore(ctx, db)
	if err != nil {
		log.Fatal().Err(err).Msg("init project store")
	}

	backend, err := geminix.NewClient(ctx, *configx.MustNew[geminix.Config]("GEMINI"))
	if err != nil {
		log.Fatal().Err(err).Msg("init gemini client")
	}

	registry := buildRegistry(projStore)

	voice := buildVoice()

	agent, err := orchestratorx.New(backend, memStore, projStore, registry.Providers())
	if err != nil {
		log.Fatal().Err(err).Msg("init orchestrator")
	}

	runChat(ctx, agent, *appCfg, voice)
}

// buildRegistry constructs every capability provider whose credentials are
// present. Providers that cannot initialize are skipped, never advertised.
func buildRegistry(projects contractx.ProjectStore) *capabilityx.Registry {
	registry := capabilityx.NewRegistry()

	googleCfg := configx.MustNew[capabilityx.GoogleConfig]("GOOGLE")

	var sheets *capabilityx.SheetsProvider
	if p, err := capabilityx.NewSheetsProvider(*googleCfg); err != nil {
		registry.Skip("sheets", err)
	} else {
		sheets = p
		registry.Add(p)
	}

	if p, err := capabilityx.NewDocsProvider(*googleCfg); err != nil {
		registry.Skip("docs", err)
	} else {
		registry.Add(p)
	}

	if p, err := capabilityx.NewGmailProvider(*googleCfg); err != nil {
		registry.Skip("gmail", err)
	} else {
		registry.Add(p)
	}

	if p, err := capabilityx.NewAnalyticsProvider(*googleCfg); err != nil {
		registry.Skip("analytics", err)
	} else {
		registry.Add(p)
	}

	if sheets != nil {
		contactsCfg := configx.MustNew[capabilityx.ContactsConfig]("CONTACTS")
		if p, err := capabilityx.NewContactsProvider(*contactsCfg, sheets); err != nil {
			registry.Skip("contacts", err)
		} else {
			registry.Add(p)
		}
	} else {
		registry.Skip("contacts", fmt.Errorf("sheets adapter unavailable"))
	}

	registry.Add(capabilityx.NewScraperProvider(*configx.MustNew[capabilityx.ScraperConfig]("SCRAPER")))

	if p, err := capabilityx.NewProjectsProvider(projects); err != nil {
		registry.Skip("projects", err)
	} else {
		registry.Add(p)
	}

	return registry
}

func buildVoice() *capabilityx.VoiceSynthesizer {
	voiceCfg := configx.MustNew[capabilityx.VoiceConfig]("ELEVENLABS")
	voice, err := capabilityx.NewVoiceSynthesizer(*voiceCfg)
	if err != nil {
		log.Info().Err(err).Msg("voice synthesis disabled")
		return nil
	}
	return voice
}

// runChat reads messages from stdin and streams each reply to stdout as it
// is generated. The session transcript is held in process and replayed into
// every turn; it is gone when the process exits.
func runChat(ctx context.Context, agent *orchestratorx.Orchestrator, cfg AppConfig, voice *capabilityx.VoiceSynthesizer) {
	var history []contractx.HistoryEntry

	out := bufio.NewWriter(os.Stdout)
	sink := func(frag contractx.OutputFragment) error {
		if _, err := out.WriteString(frag.Text); err != nil {
			return err
		}
		return out.Flush()
	}

	fmt.Println("Antigravity Marketing Agent (ctrl-d to exit)")
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		message := strings.TrimSpace(scanner.Text())
		if message == "" {
			continue
		}
		if ctx.Err() != nil {
			break
		}

		reply, err := agent.HandleMessage(ctx, orchestratorx.TurnRequest{
			UserID:      cfg.UserID,
			Message:     message,
			ProjectName: cfg.ProjectName,
			History:     history,
		}, sink)
		fmt.Println()
		if err != nil {
			log.Error().Err(err).Msg("turn failed")
			continue
		}

		history = append(history,
			contractx.HistoryEntry{Role: "user", Content: message},
			contractx.HistoryEntry{Role: "assistant", Content: reply},
		)

		if voice != nil && cfg.SpeechFile != "" {
			speak(ctx, voice, reply, cfg.SpeechFile)
		}
	}
}

func speak(ctx context.Context, voice *capabilityx.VoiceSynthesizer, reply, path string) {
	audio, err := voice.Synthesize(ctx, reply)
	if err != nil {
		log.Error().Err(err).Msg("speech synthesis failed")
		return
	}
	if err := os.WriteFile(path, audio, 0o644); err != nil {
		log.Error().Err(err).Msg("write speech file failed")
		return
	}
	log.Info().Str("path", path).Int("bytes", len(audio)).Msg("reply synthesized")
}
