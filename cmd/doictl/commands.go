package main

import (
	"context"
	"fmt"
	"strings"

	gocmd "github.com/goliatone/go-command"
	dcommand "github.com/goliatone/go-datacite/command"
	"github.com/goliatone/go-datacite/core"
	dquery "github.com/goliatone/go-datacite/query"
	"github.com/spf13/cobra"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the package identifier schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := opts.migrate(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}

func newMintCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mint <package-id>",
		Short: "Mint a new identifier for a package",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIdentifierCommand(cmd, opts, func(ctx context.Context, a *app) error {
				return a.facade.Commands().MintIdentifier.Execute(ctx, dcommand.MintIdentifierMessage{PackageID: args[0]})
			})
		},
	}
}

func newEnsureCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ensure <package-id>",
		Short: "Print the package identifier, minting one if needed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIdentifierCommand(cmd, opts, func(ctx context.Context, a *app) error {
				return a.facade.Commands().EnsureIdentifier.Execute(ctx, dcommand.EnsureIdentifierMessage{PackageID: args[0]})
			})
		},
	}
}

func runIdentifierCommand(
	cmd *cobra.Command,
	opts *rootOptions,
	execute func(ctx context.Context, a *app) error,
) error {
	a, err := opts.open(true)
	if err != nil {
		return err
	}
	collector := gocmd.NewResult[core.IdentifierRecord]()
	err = execute(gocmd.ContextWithResult(cmd.Context(), collector), a)
	if err == nil {
		if record, ok := collector.Load(); ok {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", record.PackageID, record.Identifier)
		}
	}
	return a.finish(cmd.OutOrStdout(), opts.printMetrics, err)
}

func newIdentifierCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "identifier <package-id>",
		Short: "Show the identifier stored for a package",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(true)
			if err != nil {
				return err
			}
			record, err := a.facade.Queries().GetIdentifier.Query(cmd.Context(), dquery.GetIdentifierMessage{PackageID: args[0]})
			if err == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", record.PackageID, record.Identifier)
			}
			return a.finish(cmd.OutOrStdout(), opts.printMetrics, err)
		},
	}
}

type publishFlags struct {
	packageID string
	doi       string
	url       string
	title     string
	creators  []string
	publisher string
	year      string
	options   core.MetadataOptions
}

func (f publishFlags) request() core.PublishRequest {
	return core.PublishRequest{
		URL: f.url,
		Metadata: core.MetadataInput{
			Identifier:      f.doi,
			Title:           f.title,
			Creators:        f.creators,
			Publisher:       f.publisher,
			PublicationYear: f.year,
			Options:         f.options,
		},
	}
}

func newPublishCmd(opts *rootOptions) *cobra.Command {
	var pf publishFlags
	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Upload metadata and register the DOI landing page",
		Long:  `publish uploads the DataCite metadata document and then points the DOI at --url. Without --doi the package identifier is resolved or minted first.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(pf.doi) == "" && strings.TrimSpace(pf.packageID) == "" {
				return fmt.Errorf("doictl: --doi or --package-id is required")
			}
			a, err := opts.open(strings.TrimSpace(pf.doi) == "")
			if err != nil {
				return err
			}
			return a.finish(cmd.OutOrStdout(), opts.printMetrics, runPublish(cmd, a, pf))
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&pf.packageID, "package-id", "", "package to resolve or mint an identifier for")
	flags.StringVar(&pf.doi, "doi", "", "existing DOI to publish")
	flags.StringVar(&pf.url, "url", "", "landing page URL")
	flags.StringVar(&pf.title, "title", "", "dataset title")
	flags.StringArrayVar(&pf.creators, "creator", nil, "creator name, repeat in priority order")
	flags.StringVar(&pf.publisher, "publisher", "", "publisher")
	flags.StringVar(&pf.year, "year", "", "publication year")
	flags.StringArrayVar(&pf.options.Subjects, "subject", nil, "subject keyword, repeatable")
	flags.StringVar(&pf.options.Description, "description", "", "abstract")
	flags.StringVar(&pf.options.Size, "size", "", "dataset size")
	flags.StringVar(&pf.options.Format, "format", "", "dataset format")
	flags.StringVar(&pf.options.Version, "version", "", "dataset version")
	flags.StringVar(&pf.options.Rights, "rights", "", "rights statement")
	flags.StringVar(&pf.options.ResourceType, "resource-type", "", "resource type (default Dataset)")
	flags.StringVar(&pf.options.Language, "language", "", "language code (default eng)")
	flags.StringVar(&pf.options.GeoPoint, "geo-point", "", "geo location point")
	flags.StringVar(&pf.options.GeoBox, "geo-box", "", "geo location box")
	return cmd
}

func runPublish(cmd *cobra.Command, a *app, pf publishFlags) error {
	ctx := cmd.Context()
	if strings.TrimSpace(pf.doi) == "" {
		collector := gocmd.NewResult[core.IdentifierRecord]()
		ensureCtx := gocmd.ContextWithResult(ctx, collector)
		if err := a.facade.Commands().EnsureIdentifier.Execute(ensureCtx, dcommand.EnsureIdentifierMessage{PackageID: pf.packageID}); err != nil {
			return err
		}
		record, _ := collector.Load()
		pf.doi = record.Identifier
	}

	msg := dcommand.PublishMessage{Request: pf.request()}
	if err := msg.Validate(); err != nil {
		return err
	}
	collector := gocmd.NewResult[core.PublishResult]()
	if err := a.facade.Commands().Publish.Execute(gocmd.ContextWithResult(ctx, collector), msg); err != nil {
		return err
	}
	result, _ := collector.Load()
	fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", result.Identifier, result.URL)
	return nil
}

func newDOICmd(opts *rootOptions) *cobra.Command {
	doi := &cobra.Command{
		Use:   "doi",
		Short: "Inspect and register DOIs",
	}
	doi.AddCommand(
		&cobra.Command{
			Use:   "get <doi>",
			Short: "Print the URL a DOI resolves to",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := opts.open(false)
				if err != nil {
					return err
				}
				url, err := a.facade.Queries().GetDOI.Query(cmd.Context(), dquery.GetDOIMessage{DOI: args[0]})
				if err == nil {
					fmt.Fprintln(cmd.OutOrStdout(), url)
				}
				return a.finish(cmd.OutOrStdout(), opts.printMetrics, err)
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List every DOI under the account",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				a, err := opts.open(false)
				if err != nil {
					return err
				}
				dois, err := a.facade.Queries().ListDOIs.Query(cmd.Context(), dquery.ListDOIsMessage{})
				for _, doi := range dois {
					fmt.Fprintln(cmd.OutOrStdout(), doi)
				}
				return a.finish(cmd.OutOrStdout(), opts.printMetrics, err)
			},
		},
		&cobra.Command{
			Use:   "register <doi> <url>",
			Short: "Point a DOI at a landing page",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := opts.open(false)
				if err != nil {
					return err
				}
				msg := dcommand.RegisterDOIMessage{DOI: args[0], URL: args[1]}
				if err = msg.Validate(); err == nil {
					err = a.facade.Commands().RegisterDOI.Execute(cmd.Context(), msg)
				}
				return a.finish(cmd.OutOrStdout(), opts.printMetrics, err)
			},
		},
	)
	return doi
}

func newMetadataCmd(opts *rootOptions) *cobra.Command {
	metadata := &cobra.Command{
		Use:   "metadata",
		Short: "Read or delete DOI metadata",
	}
	metadata.AddCommand(
		&cobra.Command{
			Use:   "get <doi>",
			Short: "Print the stored metadata document",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := opts.open(false)
				if err != nil {
					return err
				}
				document, err := a.facade.Queries().GetMetadata.Query(cmd.Context(), dquery.GetMetadataMessage{DOI: args[0]})
				if err == nil {
					fmt.Fprintln(cmd.OutOrStdout(), string(document))
				}
				return a.finish(cmd.OutOrStdout(), opts.printMetrics, err)
			},
		},
		&cobra.Command{
			Use:   "delete <doi>",
			Short: "Mark the DOI metadata inactive",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := opts.open(false)
				if err != nil {
					return err
				}
				err = a.facade.Commands().DeleteMetadata.Execute(cmd.Context(), dcommand.DeleteMetadataMessage{DOI: args[0]})
				return a.finish(cmd.OutOrStdout(), opts.printMetrics, err)
			},
		},
	)
	return metadata
}

func newMediaCmd(opts *rootOptions) *cobra.Command {
	media := &cobra.Command{
		Use:   "media",
		Short: "Read or set DOI media links",
	}
	media.AddCommand(
		&cobra.Command{
			Use:   "get <doi>",
			Short: "Print mime type and URL pairs",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := opts.open(false)
				if err != nil {
					return err
				}
				entries, err := a.facade.Queries().GetMedia.Query(cmd.Context(), dquery.GetMediaMessage{DOI: args[0]})
				for _, entry := range entries {
					fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", entry.MimeType, entry.URL)
				}
				return a.finish(cmd.OutOrStdout(), opts.printMetrics, err)
			},
		},
		&cobra.Command{
			Use:   "set <doi> <mime=url>...",
			Short: "Replace the media links of a DOI",
			Args:  cobra.MinimumNArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				entries := make([]core.MediaEntry, 0, len(args)-1)
				for _, pair := range args[1:] {
					mime, url, ok := strings.Cut(pair, "=")
					if !ok {
						return fmt.Errorf("doictl: media entry %q must be mime=url", pair)
					}
					entries = append(entries, core.MediaEntry{MimeType: mime, URL: url})
				}
				a, err := opts.open(false)
				if err != nil {
					return err
				}
				err = a.facade.Commands().UpsertMedia.Execute(cmd.Context(), dcommand.UpsertMediaMessage{DOI: args[0], Entries: entries})
				return a.finish(cmd.OutOrStdout(), opts.printMetrics, err)
			},
		},
	)
	return media
}
