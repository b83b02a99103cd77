package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/askiada/go-octopus/pkg/drawer"
	"github.com/askiada/go-octopus/pkg/model"
)

func newRootCmd() *cobra.Command {
	var (
		configPath string
		a          *app
	)
	get := func() *app { return a }

	root := &cobra.Command{
		Use:           "octopus",
		Short:         "Build and run continuous queries from processing models",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			a, err = newApp(cmd, configPath)

			return err
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML configuration file")

	root.AddCommand(
		newTemplatesCmd(get),
		newModelsCmd(get),
		newSaveCmd(get),
		newValidateCmd(get),
		newCompileCmd(get),
		newDrawCmd(get),
		newRunCmd(get),
	)

	return root
}

func newTemplatesCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "templates",
		Short: "List the node templates models can use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "KEY\tKIND\tINPUTS\tOUTPUT\tPARAMETERS")
			for _, n := range get().catalog.Templates() {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", n.Template(), n.Kind(), inputsOf(n), outputOf(n), paramsOf(n))
			}

			return w.Flush()
		},
	}
}

func inputsOf(n model.Node) string {
	sink, ok := n.(model.Sink)
	if !ok {
		return "-"
	}
	parts := make([]string, 0, len(sink.Inputs()))
	for _, in := range sink.Inputs() {
		parts = append(parts, fmt.Sprintf("%s %s", in.Name(), in.Type()))
	}

	return strings.Join(parts, ", ")
}

func outputOf(n model.Node) string {
	src, ok := n.(model.Source)
	if !ok {
		return "-"
	}
	attrs := src.Output().EventType().Attributes()
	parts := make([]string, 0, len(attrs))
	for _, attr := range attrs {
		parts = append(parts, attr.String())
	}

	return strings.Join(parts, ", ")
}

func paramsOf(n model.Node) string {
	params := n.Parameters().List()
	if len(params) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(params))
	for _, p := range params {
		parts = append(parts, fmt.Sprintf("%s=%v", p.Name(), p.Value()))
	}

	return strings.Join(parts, ", ")
}

func newModelsCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the models stored in the repository",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			names, err := get().repo.ModelNames()
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}

			return nil
		},
	}
}

func newSaveCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "save <document>",
		Short: "Store a model document in the repository",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			m, err := a.loadModel(args[0])
			if err != nil {
				return err
			}
			err = a.repo.SaveModel(m)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "model %s saved\n", m.Name())

			return nil
		},
	}
}

func newValidateCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <model>",
		Short: "Check a model document or a stored model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := get().loadModel(args[0])
			if err != nil {
				return err
			}
			err = m.Validate()
			if err != nil {
				return errors.Wrapf(err, "model %s is invalid", m.Name())
			}
			fmt.Fprintf(cmd.OutOrStdout(), "model %s is valid\n", m.Name())

			return nil
		},
	}
}

func newCompileCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "compile <model>",
		Short: "Print the statements a model compiles to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			m, err := a.loadModel(args[0])
			if err != nil {
				return err
			}
			rt, err := a.compiler(cmd).Compile(m)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), rt.Text())

			return nil
		},
	}
}

func newDrawCmd(get func() *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "draw <model>",
		Short: "Render a model as a Graphviz DOT document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := get().loadModel(args[0])
			if err != nil {
				return err
			}
			d, err := drawer.FromModel(m)
			if err != nil {
				return err
			}

			return writeDOT(cmd, d, output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to this file instead of standard out")

	return cmd
}

func writeDOT(cmd *cobra.Command, d drawer.Drawer, output string) error {
	if output == "" {
		return d.Draw(cmd.OutOrStdout())
	}
	file, err := os.Create(output)
	if err != nil {
		return errors.Wrapf(err, "unable to create file %s", output)
	}
	err = d.Draw(file)
	if cerr := file.Close(); err == nil {
		err = cerr
	}

	return errors.Wrapf(err, "unable to draw %s", output)
}
