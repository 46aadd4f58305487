// Package cmd — configuration.
// Settings resolve with precedence defaults < config file < MARKPIPE_* env <
// flags. Every key, its default and its meaning live in configOptions.
package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gaurav-prasanna/markpipe/core"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

type configOption struct {
	Key     string
	Default any
	Comment string
}

// configOptions returns every configuration key with its default and meaning.
func configOptions() []configOption {
	d := core.DefaultOptions()
	return []configOption{
		// Conversion
		{Key: "heading_style", Default: d.HeadingStyle, Comment: "Heading form: atx (# Title) or setext (underlined h1/h2)"},
		{Key: "bullet_list_marker", Default: d.BulletListMarker, Comment: "Unordered list marker used during conversion: -, + or *"},
		{Key: "code_block_style", Default: d.CodeBlockStyle, Comment: "Code block form: fenced or indented"},
		{Key: "fence", Default: d.Fence, Comment: "Code fence: ``` or ~~~"},
		{Key: "em_delimiter", Default: d.EmDelimiter, Comment: "Emphasis delimiter: * or _"},
		{Key: "strong_delimiter", Default: d.StrongDelimiter, Comment: "Strong emphasis delimiter: ** or __"},
		{Key: "link_style", Default: d.LinkStyle, Comment: "Link form: inlined or referenced"},
		{Key: "preserve_image_size", Default: d.PreserveImageSize, Comment: "Append =WxH to images that declare a size"},
		{Key: "preserve_table_alignment", Default: d.PreserveTableAlignment, Comment: "Emit :---: style alignment markers in tables"},
		{Key: "preserve_front_matter", Default: d.PreserveFrontMatter, Comment: "Carry a <!-- front-matter --> comment block into the output"},
		{Key: "process_complex_structures", Default: d.ProcessComplexStructures, Comment: "Normalize tables and rewrite definition lists, details, figures and media"},
		{Key: "base_url", Default: "", Comment: "Resolve relative links and images against this absolute URL"},

		// Input and output
		{Key: "extract", Default: false, Comment: "Keep only the main content of a full page before converting"},
		{Key: "front_matter", Default: false, Comment: "Prepend YAML front matter built from the page metadata"},
		{Key: "format", Default: "markdown", Comment: "Output format: markdown or json"},
		{Key: "output_dir", Default: "", Comment: "Directory for output files (default: current directory)"},
		{Key: "jobs", Default: 4, Comment: "Number of sources converted in parallel"},
		{Key: "timeout", Default: "30s", Comment: "HTTP fetch timeout"},
		{Key: "user_agent", Default: "", Comment: "User-Agent header for HTTP fetches"},
	}
}

// applyDefaults seeds v with the defaults from configOptions.
func applyDefaults(v *viper.Viper) {
	for _, o := range configOptions() {
		v.SetDefault(o.Key, o.Default)
	}
}

// loadConfig resolves configuration into v. An explicit file must exist;
// the search-path file is optional.
func loadConfig(cmd *cobra.Command, v *viper.Viper, file string) error {
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("markpipe")
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			v.AddConfigPath(filepath.Join(xdg, "markpipe"))
		}
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "markpipe"))
		}
		v.AddConfigPath(".")
	}

	applyDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix("markpipe")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	applyFlagOverrides(cmd, v)
	return nil
}

// applyFlagOverrides copies every changed flag named after a config key
// into v.
func applyFlagOverrides(cmd *cobra.Command, v *viper.Viper) {
	for _, opt := range configOptions() {
		flag := cmd.Flags().Lookup(opt.Key)
		if flag == nil || !flag.Changed {
			continue
		}
		switch flag.Value.Type() {
		case "bool":
			if val, err := cmd.Flags().GetBool(opt.Key); err == nil {
				v.Set(opt.Key, val)
			}
		case "int":
			if val, err := cmd.Flags().GetInt(opt.Key); err == nil {
				v.Set(opt.Key, val)
			}
		case "duration":
			if val, err := cmd.Flags().GetDuration(opt.Key); err == nil {
				v.Set(opt.Key, val)
			}
		default:
			v.Set(opt.Key, flag.Value.String())
		}
	}
}

// conversionOptions decodes and validates the converter options held in v.
func conversionOptions(v *viper.Viper) (core.Options, error) {
	opts := core.DefaultOptions()
	if err := v.Unmarshal(&opts); err != nil {
		return opts, fmt.Errorf("decoding options: %w", err)
	}
	if err := opts.Validate(); err != nil {
		return opts, fmt.Errorf("invalid configuration: %w", err)
	}
	return opts, nil
}

// checkConfigValidity reports every invalid non-conversion setting.
func checkConfigValidity(v *viper.Viper) error {
	var errs []error
	switch v.GetString("format") {
	case "markdown", "json":
	default:
		errs = append(errs, fmt.Errorf("format must be markdown or json (got %q)", v.GetString("format")))
	}
	if v.GetInt("jobs") < 1 {
		errs = append(errs, errors.New("jobs must be greater than 0"))
	}
	if v.GetDuration("timeout") <= 0 {
		errs = append(errs, fmt.Errorf("timeout must be a positive duration (got %q)", v.GetString("timeout")))
	}
	return errors.Join(errs...)
}

// renderDefaultYAML renders a commented config file holding every default.
func renderDefaultYAML() (string, error) {
	var b strings.Builder
	b.WriteString("# markpipe configuration (YAML)\n")
	for _, o := range configOptions() {
		out, err := yaml.Marshal(map[string]any{o.Key: o.Default})
		if err != nil {
			return "", fmt.Errorf("encoding %s: %w", o.Key, err)
		}
		b.WriteString("\n# " + o.Comment + "\n")
		b.Write(out)
	}
	return b.String(), nil
}

// renderEffectiveYAML renders the resolved value of every key in v.
func renderEffectiveYAML(v *viper.Viper) (string, error) {
	var b strings.Builder
	if used := v.ConfigFileUsed(); used != "" {
		b.WriteString("# config file: " + used + "\n")
	}
	for _, o := range configOptions() {
		out, err := yaml.Marshal(map[string]any{o.Key: v.Get(o.Key)})
		if err != nil {
			return "", fmt.Errorf("encoding %s: %w", o.Key, err)
		}
		b.Write(out)
	}
	return b.String(), nil
}

var flagDefaults bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Long: `Config prints every setting after merging defaults, the config file,
MARKPIPE_* environment variables and flags. With --defaults it prints a
commented config file holding the defaults instead.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		var out string
		var err error
		if flagDefaults {
			out, err = renderDefaultYAML()
		} else {
			out, err = renderEffectiveYAML(cfg)
		}
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(cmd.OutOrStdout(), out)
		return err
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.Flags().BoolVar(&flagDefaults, "defaults", false, "Print the default configuration as a commented YAML file")
}
