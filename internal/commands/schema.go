package commands

import (
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/texbld/texbld-manager/internal/output"
)

// newSchemaCmd describes the command tree for scripts and shell wrappers.
// Output is always JSON.
func newSchemaCmd(root *cobra.Command) *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the command surface as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var schemas []commandSchema
			collectCommandSchemas(root, &schemas)

			cfg := output.DefaultConfig()
			cfg.Writer = cmd.OutOrStdout()
			return output.PrintWith(cfg, output.Success(schemas))
		},
	}
}

type flagSchema struct {
	Name        string `json:"name"`
	Shorthand   string `json:"shorthand,omitempty"`
	Type        string `json:"type"`
	Default     any    `json:"default,omitempty"`
	Description string `json:"description"`
	Inherited   bool   `json:"inherited,omitempty"`
}

type commandSchema struct {
	Command     string       `json:"command"`
	Aliases     []string     `json:"aliases,omitempty"`
	Args        []string     `json:"args,omitempty"`
	Description string       `json:"description,omitempty"`
	Flags       []flagSchema `json:"flags"`
}

func collectCommandSchemas(cmd *cobra.Command, out *[]commandSchema) {
	if cmd.HasParent() && cmd.Name() != "schema" && !cmd.Hidden {
		*out = append(*out, buildCommandSchema(cmd))
	}
	for _, child := range cmd.Commands() {
		collectCommandSchemas(child, out)
	}
}

func buildCommandSchema(cmd *cobra.Command) commandSchema {
	flags := make([]flagSchema, 0)
	seen := map[string]bool{}

	add := func(inherited bool) func(f *pflag.Flag) {
		return func(f *pflag.Flag) {
			if f.Hidden || seen[f.Name] {
				return
			}
			seen[f.Name] = true
			fs := flagSchema{
				Name:        f.Name,
				Shorthand:   f.Shorthand,
				Type:        normalizeFlagType(f.Value.Type()),
				Description: f.Usage,
				Inherited:   inherited,
			}
			if f.DefValue != "" {
				fs.Default = typedFlagDefault(f.Value.Type(), f.DefValue)
			}
			flags = append(flags, fs)
		}
	}

	cmd.NonInheritedFlags().VisitAll(add(false))
	cmd.InheritedFlags().VisitAll(add(true))
	sort.SliceStable(flags, func(i, j int) bool {
		if flags[i].Inherited != flags[j].Inherited {
			return !flags[i].Inherited
		}
		return flags[i].Name < flags[j].Name
	})

	return commandSchema{
		Command:     cmd.CommandPath(),
		Aliases:     cmd.Aliases,
		Args:        positionalArgs(cmd.Use),
		Description: cmd.Short,
		Flags:       flags,
	}
}

// positionalArgs returns the "<...>" placeholders from a Use line.
func positionalArgs(use string) []string {
	fields := strings.Fields(use)
	if len(fields) < 2 {
		return nil
	}
	var args []string
	for _, field := range fields[1:] {
		if strings.HasPrefix(field, "<") && strings.HasSuffix(field, ">") {
			args = append(args, strings.Trim(field, "<>"))
		}
	}
	return args
}

func normalizeFlagType(flagType string) string {
	switch flagType {
	case "int", "int64", "int32", "uint", "uint64", "uint32":
		return "integer"
	case "bool":
		return "boolean"
	default:
		return "string"
	}
}

func typedFlagDefault(flagType, raw string) any {
	switch flagType {
	case "bool":
		if v, err := strconv.ParseBool(raw); err == nil {
			return v
		}
	case "int", "int64", "int32", "uint", "uint64", "uint32":
		if v, err := strconv.Atoi(raw); err == nil {
			return v
		}
	}
	return raw
}
