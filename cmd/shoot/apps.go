package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yourorg/shoot/internal/apispec"
	"github.com/yourorg/shoot/internal/builder"
)

func newBuilder(e *env) (*builder.Builder, error) {
	d, err := apispec.NewDescriber(16)
	if err != nil {
		return nil, err
	}
	return builder.New(e.store, e.completer(), d, e.logger), nil
}

func newGenerateCmd(opts *rootOptions) *cobra.Command {
	var specID, framework string
	var useAI bool
	cmd := &cobra.Command{Use: "generate", Short: "Generate an app from a spec", RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv(opts)
		if err != nil {
			return err
		}
		defer e.Close()

		b, err := newBuilder(e)
		if err != nil {
			return err
		}
		res, err := b.GenerateApp(cmd.Context(), specID, framework, useAI)
		if err != nil {
			return err
		}
		if !res.Success {
			return fmt.Errorf("generate failed: %s", res.Error)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "generated %s (%s) with %d files\n", res.Name, res.ID, res.FileCount)
		return nil
	}}
	cmd.Flags().StringVar(&specID, "spec", "", "spec id")
	cmd.Flags().StringVar(&framework, "framework", "react", "react, node or express")
	cmd.Flags().BoolVar(&useAI, "ai", false, "generate with the language model when configured")
	_ = cmd.MarkFlagRequired("spec")
	return cmd
}

func newExportCmd(opts *rootOptions) *cobra.Command {
	var appID, dir string
	cmd := &cobra.Command{Use: "export", Short: "Write a generated app to disk", RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv(opts)
		if err != nil {
			return err
		}
		defer e.Close()

		if dir != "" {
			e.cfg.Output.Dir = dir
		}
		if err := e.cfg.ValidateExport(); err != nil {
			return err
		}
		b, err := newBuilder(e)
		if err != nil {
			return err
		}
		path, err := b.ExportApp(appID, e.cfg.Output.Dir)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "exported to", path)
		return nil
	}}
	cmd.Flags().StringVar(&appID, "app", "", "app id")
	cmd.Flags().StringVar(&dir, "out", "", "output directory (default output.dir)")
	_ = cmd.MarkFlagRequired("app")
	return cmd
}
