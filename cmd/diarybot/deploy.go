package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"diarybot/internal/adapters/builder"
	"diarybot/internal/config"
	"diarybot/internal/core/domain"
)

func buildCmd() *cobra.Command {
	var (
		repoURL    string
		contextDir string
		image      string
	)
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the bot's deployment image from the configured recipe",
		RunE: func(cmd *cobra.Command, args []string) error {
			if repoURL == "" && contextDir == "" {
				return errors.New("either --repo or --context is required")
			}
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			if image == "" {
				image = cfg.Build.Image
			}

			b, err := builder.NewAdapter(logger)
			if err != nil {
				return err
			}
			src := domain.BuildSource{RepoURL: repoURL, ContextDir: contextDir}
			built, err := b.BuildImage(cmd.Context(), src, cfg.Build.Recipe, image)
			if err != nil {
				return err
			}
			fmt.Printf("built %s\n", built)

			layers, err := b.LayerDigests(cmd.Context(), built)
			if err != nil {
				return err
			}
			for _, l := range layers {
				fmt.Println(l)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&repoURL, "repo", "", "git repository to build from")
	cmd.Flags().StringVar(&contextDir, "context", "", "local build context directory")
	cmd.Flags().StringVar(&image, "image", "", "image tag (defaults to build.image from config)")
	return cmd
}

func exportCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export IMAGE",
		Short: "Export a built image to a tarball for docker load",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := builder.NewAdapter(logger)
			if err != nil {
				return err
			}
			if err := b.ExportImage(cmd.Context(), args[0], output); err != nil {
				return err
			}
			fmt.Printf("exported %s to %s\n", args[0], output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "diarybot.tar", "destination tarball path")
	return cmd
}

func layersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "layers IMAGE",
		Short: "Print the RootFS layer digests of a built image",
		Long: `Print the image's layer digests. Running this before and after a rebuild
shows whether the dependency layers were reused from cache: identical leading
digests mean only the application layers were rebuilt.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := builder.NewAdapter(logger)
			if err != nil {
				return err
			}
			layers, err := b.LayerDigests(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			for _, l := range layers {
				fmt.Println(l)
			}
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the diarybot version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("diarybot " + version)
		},
	}
}
