package app

import (
	"context"
	"sort"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/agentstation/cdmforge"
	genaimatcher "github.com/agentstation/cdmforge/internal/matchers/genai"
	"github.com/agentstation/cdmforge/pkg/logging"
	"github.com/agentstation/cdmforge/pkg/match"
)

// CreateBuildCommand creates the build command.
func (a *App) CreateBuildCommand() *cobra.Command {
	var (
		foundationFile string
		sourcesToMap   []string
		skipMatching   bool
		reuseMatches   bool
		offline        bool
		model          string
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Run a full CDM build",
		Long: `Build runs the complete pipeline: discover rationalized sources,
initialize the canonical schema from the foundational schema, generate
or reuse one match file per source, apply the match files, and write
the schema snapshot, disposition report, and gap report.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := logging.WithLogger(cmd.Context(), a.logger)

			matcher, err := a.matcher(ctx, offline, model)
			if err != nil {
				return err
			}

			extra := []cdmforge.Option{cdmforge.WithMatcher(matcher)}
			if foundationFile != "" {
				extra = append(extra, cdmforge.WithFoundationFile(foundationFile))
			}
			if len(sourcesToMap) > 0 {
				extra = append(extra, cdmforge.WithSourcesToMap(sourcesToMap...))
			}
			if skipMatching {
				extra = append(extra, cdmforge.WithSkipMatching(true))
			}
			if reuseMatches {
				extra = append(extra, cdmforge.WithMatchFileReuse(true))
			}

			builder, err := a.Builder(extra...)
			if err != nil {
				return err
			}

			result, err := builder.Build(ctx)
			if err != nil {
				return err
			}

			cmd.Print(result.Summary())
			return nil
		},
	}

	cmd.Flags().StringVar(&foundationFile, "foundation", "", "explicit foundational schema file (default: latest in foundation dir)")
	cmd.Flags().StringSliceVar(&sourcesToMap, "sources", nil, "source-types to run the matcher for (default: all discovered)")
	cmd.Flags().BoolVar(&skipMatching, "skip-matching", false, "skip matching, use persisted match files only")
	cmd.Flags().BoolVar(&reuseMatches, "reuse-matches", false, "prefer persisted match files over re-matching")
	cmd.Flags().BoolVar(&offline, "offline", false, "use the deterministic name matcher instead of a model")
	cmd.Flags().StringVar(&model, "model", "", "model to use for matching (default: "+genaimatcher.DefaultModel+")")

	return cmd
}

// CreateDiscoverCommand creates the discover command.
func (a *App) CreateDiscoverCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "discover",
		Short: "List discovered rationalized sources",
		Long: `Discover lists the latest rationalized source file per source-type for
the configured domain without running a build.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			builder, err := a.Builder()
			if err != nil {
				return err
			}

			discovered := builder.Discover()
			if len(discovered) == 0 {
				cmd.Printf("No rationalized sources found for domain %q\n", a.config.Domain)
				return nil
			}

			sourceTypes := make([]string, 0, len(discovered))
			for st := range discovered {
				sourceTypes = append(sourceTypes, st)
			}
			sort.Strings(sourceTypes)

			caser := cases.Title(language.English)
			cmd.Printf("Found %d sources for domain %q:\n", len(sourceTypes), a.config.Domain)
			for _, st := range sourceTypes {
				cmd.Printf("  %-16s %s\n", caser.String(st), discovered[st])
			}
			return nil
		},
	}
}

// CreateVersionCommand creates the version command.
func (a *App) CreateVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("cdmforge %s\n", a.version)
			if a.config.Verbose {
				cmd.Printf("  commit:   %s\n", a.commit)
				cmd.Printf("  built:    %s\n", a.date)
				cmd.Printf("  built by: %s\n", a.builtBy)
			}
		},
	}
}

// matcher selects the matcher for a build: the offline name matcher when
// requested, otherwise a Gemini-backed matcher.
func (a *App) matcher(ctx context.Context, offline bool, model string) (match.Matcher, error) {
	if offline || a.config.Offline {
		a.logger.Info().Msg("Using offline name matcher")
		return offlineMatcher(), nil
	}

	if model == "" {
		model = a.config.Model
	}
	return genaimatcher.New(ctx, genaimatcher.WithModel(model))
}
