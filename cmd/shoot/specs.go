package main

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/yourorg/shoot/internal/apispec"
)

func newImportCmd(opts *rootOptions) *cobra.Command {
	var specURL, file, name string
	cmd := &cobra.Command{Use: "import", Short: "Import an API spec from a URL or file", RunE: func(cmd *cobra.Command, args []string) error {
		if (specURL == "") == (file == "") {
			return errors.New("exactly one of --url or --file is required")
		}
		e, err := loadEnv(opts)
		if err != nil {
			return err
		}
		defer e.Close()

		in := apispec.Input{URL: specURL, Name: name}
		if file != "" {
			data, err := os.ReadFile(file)
			if err != nil {
				return err
			}
			in.Content = string(data)
		}
		im := &apispec.Importer{
			Store:   e.store,
			Fetcher: &apispec.Fetcher{Timeout: e.cfg.Fetch.Timeout, Logger: e.logger},
			Logger:  e.logger,
		}
		res, err := im.Import(cmd.Context(), in)
		if err != nil {
			return err
		}
		if !res.Success {
			return fmt.Errorf("import failed: %s", res.Error)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "imported %s (%s) with %d endpoints\n", res.Name, res.ID, res.EndpointCount)
		return nil
	}}
	cmd.Flags().StringVar(&specURL, "url", "", "spec URL")
	cmd.Flags().StringVar(&file, "file", "", "spec file path (JSON or YAML)")
	cmd.Flags().StringVar(&name, "name", "", "name used when the spec has no title")
	return cmd
}

func newListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{Use: "list", Short: "List imported specs", RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv(opts)
		if err != nil {
			return err
		}
		defer e.Close()

		specs, err := e.store.ListSpecs()
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tTYPE\tENDPOINTS\tCREATED")
		for _, s := range specs {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", s.ID, s.Name, s.SpecType, s.EndpointCount, s.CreatedAt.Format("2006-01-02 15:04"))
		}
		return tw.Flush()
	}}
}

func newShowCmd(opts *rootOptions) *cobra.Command {
	var specID string
	cmd := &cobra.Command{Use: "show", Short: "Show a spec with its endpoints and apps", RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv(opts)
		if err != nil {
			return err
		}
		defer e.Close()

		spec, err := e.store.GetSpec(specID)
		if err != nil {
			return err
		}
		eps, err := e.store.ListEndpoints(specID)
		if err != nil {
			return err
		}
		apps, err := e.store.ListApps(specID)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s %s (%s)\n", spec.Name, spec.Version, spec.SpecType)
		if spec.Description != "" {
			fmt.Fprintln(out, spec.Description)
		}
		if spec.OverrideBaseURL != "" {
			fmt.Fprintln(out, "base url:", spec.OverrideBaseURL)
		}
		fmt.Fprintf(out, "\nendpoints (%d):\n", len(eps))
		for _, ep := range eps {
			fmt.Fprintf(out, "  %-7s %s  %s\n", ep.Method, ep.Path, ep.Summary)
		}
		fmt.Fprintf(out, "\napps (%d):\n", len(apps))
		for _, a := range apps {
			fmt.Fprintf(out, "  %s  %s [%s] %d files\n", a.ID, a.Name, a.Framework, len(a.Code))
		}
		return nil
	}}
	cmd.Flags().StringVar(&specID, "spec", "", "spec id")
	_ = cmd.MarkFlagRequired("spec")
	return cmd
}

func newDeleteCmd(opts *rootOptions) *cobra.Command {
	var specID string
	cmd := &cobra.Command{Use: "delete", Short: "Delete a spec and everything generated from it", RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv(opts)
		if err != nil {
			return err
		}
		defer e.Close()

		if err := e.store.DeleteSpec(specID); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "deleted", specID)
		return nil
	}}
	cmd.Flags().StringVar(&specID, "spec", "", "spec id")
	_ = cmd.MarkFlagRequired("spec")
	return cmd
}
