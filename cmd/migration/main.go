package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/riskibarqy/sportsfeed/internal/app"
	"github.com/riskibarqy/sportsfeed/internal/config"
	"github.com/riskibarqy/sportsfeed/internal/platform/logging"
)

var defaultMigrationDirs = []string{"./db/migrations", "/app/db/migrations"}

type command struct {
	usage string
	run   func(m *migrate.Migrate, args []string, out io.Writer) error
}

var commands = map[string]command{
	"up": {
		usage: "up",
		run: func(m *migrate.Migrate, _ []string, _ io.Writer) error {
			return m.Up()
		},
	},
	"down": {
		usage: "down [steps=1]",
		run: func(m *migrate.Migrate, args []string, _ io.Writer) error {
			steps, err := parseSteps(args)
			if err != nil {
				return err
			}
			return m.Steps(-steps)
		},
	},
	"version": {
		usage: "version",
		run: func(m *migrate.Migrate, _ []string, out io.Writer) error {
			version, dirty, err := m.Version()
			if errors.Is(err, migrate.ErrNilVersion) {
				_, err = fmt.Fprintln(out, "version: none\ndirty: false")
				return err
			}
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(out, "version: %d\ndirty: %t\n", version, dirty)
			return err
		},
	},
	"force": {
		usage: "force <version>",
		run: func(m *migrate.Migrate, args []string, _ io.Writer) error {
			if len(args) == 0 {
				return fmt.Errorf("force requires a version argument")
			}
			version, err := parseVersion(args[0])
			if err != nil {
				return err
			}
			return m.Force(version)
		},
	},
	"goto": {
		usage: "goto <version>",
		run: func(m *migrate.Migrate, args []string, _ io.Writer) error {
			if len(args) == 0 {
				return fmt.Errorf("goto requires a target version argument")
			}
			target, err := parseVersion(args[0])
			if err != nil {
				return err
			}
			return m.Migrate(uint(target))
		},
	},
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	logger := logging.NewJSON(logging.LevelInfo).Named("migration")
	defer func() { _ = logger.Sync() }()

	if len(args) == 0 {
		printUsage(os.Stderr)
		return 2
	}
	name := strings.ToLower(strings.TrimSpace(args[0]))
	cmd, ok := commands[name]
	if !ok {
		printUsage(os.Stderr)
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Error("load config", "error", err)
		return 1
	}
	if cfg.DBURL == "" {
		logger.Error("DB_URL is required")
		return 1
	}
	cfg.ServiceName = "sportsfeed-migration"

	dir, err := resolveMigrationsDir(os.Getenv("MIGRATIONS_DIR"), defaultMigrationDirs...)
	if err != nil {
		logger.Error("resolve migrations dir", "error", err)
		return 1
	}
	source := "file://" + filepath.ToSlash(dir)

	m, err := migrate.New(source, app.DatabaseURL(cfg))
	if err != nil {
		logger.Error("create migrator", "source", source, "error", err)
		return 1
	}
	defer func() {
		srcErr, dbErr := m.Close()
		if err := errors.Join(srcErr, dbErr); err != nil {
			logger.Warn("close migrator", "error", err)
		}
	}()

	err = cmd.run(m, args[1:], os.Stdout)
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		logger.Info("no migration changes", "command", name)
	case err != nil:
		logger.Error("migration failed", "command", name, "source", source, "error", err)
		return 1
	default:
		logger.Info("migration command finished", "command", name, "args", args[1:])
	}
	return 0
}

func parseSteps(args []string) (int, error) {
	if len(args) == 0 {
		return 1, nil
	}
	steps, err := strconv.Atoi(strings.TrimSpace(args[0]))
	if err != nil {
		return 0, fmt.Errorf("invalid down steps %q: %w", args[0], err)
	}
	if steps <= 0 {
		return 0, fmt.Errorf("down steps must be > 0")
	}
	return steps, nil
}

// parseVersion accepts migration versions, which are unix timestamps.
func parseVersion(raw string) (int, error) {
	value, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid version %q: %w", raw, err)
	}
	if value < 0 {
		return 0, fmt.Errorf("version must be >= 0")
	}
	return int(value), nil
}

func resolveMigrationsDir(explicit string, fallbacks ...string) (string, error) {
	candidates := append([]string{strings.TrimSpace(explicit)}, fallbacks...)
	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		abs, err := filepath.Abs(candidate)
		if err != nil {
			continue
		}
		if info, err := os.Stat(abs); err == nil && info.IsDir() {
			return abs, nil
		}
	}
	return "", fmt.Errorf("migration directory not found in %v", candidates)
}

func printUsage(w io.Writer) {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	bin := filepath.Base(os.Args[0])
	fmt.Fprintf(w, "usage: %s <%s> [args]\n", bin, strings.Join(names, "|"))
	for _, name := range names {
		fmt.Fprintf(w, "  %s %s\n", bin, commands[name].usage)
	}
}
