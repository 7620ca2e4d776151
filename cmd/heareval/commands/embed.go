package commands

import (
	"encoding/json"
	"errors"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bogdanteleaga/hear-eval-kit/pkg/baseline"
	"github.com/bogdanteleaga/hear-eval-kit/pkg/baseline/embcache"
)

type embedResult struct {
	File       string    `json:"file"`
	HopSize    int       `json:"hop_size"`
	Timestamps []float64 `json:"timestamps"`
	Embedding  [][]int8  `json:"embedding"`
	Cached     bool      `json:"cached"`
}

func newEmbedCommand() *cobra.Command {
	var (
		hopSize    int
		cacheDir   string
		noCache    bool
		outputPath string
	)

	cmd := &cobra.Command{
		Use:   "embed [wav files...]",
		Short: "Compute baseline embeddings for audio files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hopResolved := resolveInt(hopSize, appConfig.Embed.HopSize, baseline.SampleRate/2)
			if hopResolved <= 0 {
				return errors.New("hop size must be > 0")
			}

			var cache *embcache.Cache
			if !noCache {
				ttl := time.Duration(appConfig.Embed.CacheTTLHours) * time.Hour
				dirResolved := resolveString(cacheDir, appConfig.Embed.CacheDir)
				var err error
				cache, err = embcache.New(dirResolved, ttl)
				if err != nil {
					return err
				}
			}

			writer := cmd.OutOrStdout()
			if outputResolved := resolveString(outputPath, appConfig.Output); outputResolved != "" {
				file, err := os.Create(outputResolved)
				if err != nil {
					return err
				}
				defer file.Close()
				writer = file
			}
			encoder := json.NewEncoder(writer)

			model := baseline.NewModel()
			ctx := cmd.Context()

			for _, path := range args {
				result := embedResult{File: path, HopSize: hopResolved}

				var digest string
				if cache != nil {
					var err error
					digest, err = embcache.FileDigest(path)
					if err != nil {
						return err
					}
					if entry, ok := cache.Get(digest, hopResolved, baseline.Version); ok {
						result.Timestamps = entry.Timestamps
						result.Embedding = entry.Quantized
						result.Cached = true
						if err := encoder.Encode(result); err != nil {
							return err
						}
						logger.Debug("embedding served from cache", zap.String("file", path))
						continue
					}
				}

				samples, err := baseline.ReadWAV(path)
				if err != nil {
					return err
				}
				emb, err := model.Embed(ctx, samples, hopResolved)
				if err != nil {
					return err
				}

				result.Timestamps = emb.Timestamps
				result.Embedding = emb.Quantized
				if err := encoder.Encode(result); err != nil {
					return err
				}

				if cache != nil {
					entry := embcache.Entry{Timestamps: emb.Timestamps, Quantized: emb.Quantized}
					if err := cache.Set(digest, hopResolved, baseline.Version, entry); err != nil {
						logger.Warn("embedding cache write failed", zap.Error(err))
					}
				}
				logger.Info("embedded file",
					zap.String("file", path),
					zap.Int("frames", len(emb.Timestamps)))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&hopSize, "hop-size", 0, "hop size in samples")
	cmd.Flags().StringVar(&cacheDir, "cache-dir", "", "embedding cache directory")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the embedding cache")
	cmd.Flags().StringVar(&outputPath, "output", "", "output file path (JSONL)")

	return cmd
}
