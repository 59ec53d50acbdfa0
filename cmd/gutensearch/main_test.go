package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func TestReembedCommandFlags(t *testing.T) {
	app := &cli.App{
		Name: "gutensearch",
		Commands: []*cli.Command{
			{
				Name:   "reembed",
				Action: reembedCommand,
				Flags:  reembedFlags(),
			},
		},
	}

	t.Run("missing db flag fails", func(t *testing.T) {
		args := []string{"gutensearch", "reembed", "--embedding-model", "test-model"}
		err := app.Run(args)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "db")
	})

	t.Run("embedding-model is required", func(t *testing.T) {
		args := []string{"gutensearch", "reembed", "--db", "/tmp/test"}
		err := app.Run(args)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "embedding-model")
	})

	t.Run("embedding-host has default value", func(t *testing.T) {
		var hostFlag *cli.StringFlag
		for _, flag := range reembedFlags() {
			if f, ok := flag.(*cli.StringFlag); ok && f.Name == "embedding-host" {
				hostFlag = f
				break
			}
		}
		require.NotNil(t, hostFlag)
		assert.Equal(t, "http://localhost:11434/v1", hostFlag.Value)
	})

	t.Run("batch-size has default value of 100", func(t *testing.T) {
		var batchFlag *cli.IntFlag
		for _, flag := range reembedFlags() {
			if f, ok := flag.(*cli.IntFlag); ok && f.Name == "batch-size" {
				batchFlag = f
				break
			}
		}
		require.NotNil(t, batchFlag)
		assert.Equal(t, 100, batchFlag.Value)
	})
}

func TestLoadBookSources(t *testing.T) {
	writeFile := func(t *testing.T, path, contents string) {
		t.Helper()
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	}

	t.Run("pairs metadata with text", func(t *testing.T) {
		dataDir := t.TempDir()
		writeFile(t, filepath.Join(dataDir, "metadata", "pg84.json"),
			`{"id": 84, "title": "Frankenstein", "authors": [{"name": "Shelley, Mary"}], "subjects": ["Horror tales"]}`)
		writeFile(t, filepath.Join(dataDir, "books", "pg84.txt"), "it was on a dreary night of november")

		sources, err := loadBookSources(dataDir)
		require.NoError(t, err)
		require.Len(t, sources, 1)
		assert.Equal(t, "pg84", sources[0].SourceId)
		assert.Equal(t, "Frankenstein", sources[0].Title)
		assert.Equal(t, "it was on a dreary night of november", sources[0].Contents)
		assert.Equal(t, "Shelley, Mary", sources[0].Metadata["author"])
		assert.Equal(t, "Horror tales", sources[0].Metadata["subjects"])
	})

	t.Run("skips books without text files", func(t *testing.T) {
		dataDir := t.TempDir()
		writeFile(t, filepath.Join(dataDir, "metadata", "pg84.json"), `{"id": 84, "title": "Frankenstein"}`)
		writeFile(t, filepath.Join(dataDir, "metadata", "pg100.json"), `{"id": 100, "title": "Complete Works"}`)
		writeFile(t, filepath.Join(dataDir, "books", "pg84.txt"), "text")

		sources, err := loadBookSources(dataDir)
		require.NoError(t, err)
		require.Len(t, sources, 1)
		assert.Equal(t, "pg84", sources[0].SourceId)
	})

	t.Run("skips malformed metadata", func(t *testing.T) {
		dataDir := t.TempDir()
		writeFile(t, filepath.Join(dataDir, "metadata", "bad.json"), "not json")
		writeFile(t, filepath.Join(dataDir, "metadata", "pg84.json"), `{"id": 84, "title": "Frankenstein"}`)
		writeFile(t, filepath.Join(dataDir, "books", "bad.txt"), "text")
		writeFile(t, filepath.Join(dataDir, "books", "pg84.txt"), "text")

		sources, err := loadBookSources(dataDir)
		require.NoError(t, err)
		require.Len(t, sources, 1)
	})

	t.Run("empty collection is an error", func(t *testing.T) {
		_, err := loadBookSources(t.TempDir())
		assert.Error(t, err)
	})
}

func TestSetupLogger(t *testing.T) {
	t.Run("valid log levels", func(t *testing.T) {
		testCases := []struct {
			input    string
			expected slog.Level
		}{
			{"debug", slog.LevelDebug},
			{"info", slog.LevelInfo},
			{"warn", slog.LevelWarn},
			{"error", slog.LevelError},
		}

		for _, tc := range testCases {
			t.Run(tc.input, func(t *testing.T) {
				app := &cli.App{
					Name: "test",
					Flags: []cli.Flag{
						&cli.StringFlag{
							Name:  "log-level",
							Value: tc.input,
						},
					},
					Before: setupLogger,
					Action: func(c *cli.Context) error {
						return nil
					},
				}

				err := app.Run([]string{"test", "--log-level", tc.input})
				require.NoError(t, err)
			})
		}
	})

	t.Run("case insensitive log levels", func(t *testing.T) {
		for _, tc := range []string{"DEBUG", "Info", "WaRn", "ERROR"} {
			t.Run(tc, func(t *testing.T) {
				app := &cli.App{
					Name: "test",
					Flags: []cli.Flag{
						&cli.StringFlag{
							Name:  "log-level",
							Value: "info",
						},
					},
					Before: setupLogger,
					Action: func(c *cli.Context) error {
						return nil
					},
				}

				err := app.Run([]string{"test", "--log-level", tc})
				require.NoError(t, err)
			})
		}
	})

	t.Run("invalid log level returns error", func(t *testing.T) {
		app := &cli.App{
			Name: "test",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "log-level",
					Value: "info",
				},
			},
			Before: setupLogger,
			Action: func(c *cli.Context) error {
				return nil
			},
		}

		err := app.Run([]string{"test", "--log-level", "invalid"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
	})
}

func TestMain(m *testing.M) {
	code := m.Run()
	os.Exit(code)
}
