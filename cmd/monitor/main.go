package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/benmeehan/sysmon-agent/internal/collectors"
	"github.com/benmeehan/sysmon-agent/internal/display"
	"github.com/benmeehan/sysmon-agent/internal/monitor"
	"github.com/benmeehan/sysmon-agent/internal/utils"
	"github.com/benmeehan/sysmon-agent/pkg/file"
	"github.com/benmeehan/sysmon-agent/pkg/mailer"
	"github.com/benmeehan/sysmon-agent/pkg/rotatelog"
	"github.com/rs/zerolog"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the configuration file")
	genConfig := flag.Bool("gen-config", false, "write a default configuration file and exit")
	testEmail := flag.Bool("test-email", false, "send a synthetic alert email and exit")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	// Diagnostics go to stderr; stdout carries the status lines.
	level := zerolog.InfoLevel
	if *debug {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()

	fileClient := file.NewFileService()

	if *genConfig {
		if err := utils.WriteDefaultConfig(*configPath, fileClient); err != nil {
			log.Fatal().Err(err).Str("path", *configPath).Msg("Failed to write default configuration")
		}
		fmt.Printf("Generated default configuration at %s\n", *configPath)
		fmt.Println("Please edit this file with your settings")
		return
	}

	config, err := utils.LoadConfig(*configPath, fileClient)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Rotating status log shared by the monitor loop.
	logWriter, err := rotatelog.New(config.Logging.LogFile, config.MaxLogSizeBytes(), config.Logging.BackupCount, log)
	if err != nil {
		log.Fatal().Err(err).Str("path", config.Logging.LogFile).Msg("Failed to open status log")
	}
	defer logWriter.Close()
	statusLog := zerolog.New(logWriter).With().Timestamp().Str("hostname", config.General.Hostname).Logger()

	var dispatcher *monitor.Dispatcher
	if config.EmailConfigured() {
		smtpMailer, err := mailer.NewSMTPMailer(
			config.Email.SMTPServer, config.Email.SMTPPort,
			config.Email.Username, config.Email.Password,
			config.Email.Sender, config.Email.Receiver,
			log,
		)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize mail transport")
		}
		dispatcher = monitor.NewDispatcher(
			smtpMailer, config.Email.Subject, config.General.Hostname,
			config.General.Interval, config.Email.Timeout, log,
		)
	} else {
		log.Warn().Msg("Email configuration incomplete, alert mail disabled")
	}

	if *testEmail {
		if dispatcher == nil {
			log.Fatal().Msg("Cannot send test email without a complete email configuration")
		}
		fmt.Println("Sending test email...")
		if err := dispatcher.SendTest(context.Background()); err != nil {
			log.Fatal().Err(err).Msg("Test email failed")
		}
		fmt.Println("Test email sent successfully")
		return
	}

	sampler := collectors.NewHostSampler(config.General.CPUWindow, "/", log)
	rates := monitor.NewRateCalculator(log)
	evaluator := monitor.NewEvaluator(config.Thresholds.Thresholds, config.Thresholds.Cooldown, log)
	console := display.NewConsole(config.Thresholds.Thresholds, os.Stdout)
	console.Banner(config.General.Hostname)

	service := monitor.NewService(sampler, rates, evaluator, dispatcher, console,
		config.General.Interval, statusLog, log)

	if err := service.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start monitor service")
	}
	statusLog.Info().Msg("Monitoring started")

	// Handle graceful shutdown
	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)
	<-stopCh

	log.Info().Msg("Shutting down gracefully...")
	if err := service.Stop(); err != nil {
		log.Error().Err(err).Msg("Failed to stop monitor service")
	}
	statusLog.Info().Msg("Monitoring stopped")
}
