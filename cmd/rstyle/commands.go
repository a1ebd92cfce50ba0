package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"
	yaml "gopkg.in/yaml.v3"

	"rstyle/config"
	"rstyle/css"
	"rstyle/registry"
	"rstyle/state"
	"rstyle/style"
	dbg "rstyle/utils/debug"
)

func keyFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "scope", Aliases: []string{"s"}, Usage: "stylesheet `SCOPE`"},
		&cli.StringFlag{Name: "org", Aliases: []string{"o"}, Usage: "tenant organization `ID`"},
		&cli.BoolFlag{Name: "report", Aliases: []string{"r"}, Usage: "use report flavor of stylesheets"},
	}
}

func keyFromCommand(cmd *cli.Command) registry.Key {
	return registry.Key{
		Scope:  cmd.String("scope"),
		Report: cmd.Bool("report"),
		OrgID:  cmd.String("org"),
	}
}

// reported holds ids of sheets already added to the debug report.
var reported sync.Map

// loadSheet returns the merged stylesheet of key logging its warnings. With
// debug reporting on, the merged text is added to the report.
func loadSheet(env *state.LocalEnv, key registry.Key) *registry.Sheet {
	sheet := env.Registry.Stylesheet(key)
	if sheet == nil {
		env.Log.Warn("No stylesheet sources found", zap.Stringer("key", key))
		return nil
	}
	for _, w := range sheet.Warnings() {
		env.Log.Warn("Stylesheet warning", zap.String("warning", w))
	}
	if _, seen := reported.LoadOrStore(sheet.ID, struct{}{}); !seen && env.Rpt != nil {
		if data, err := sheetText(sheet); err == nil {
			env.Rpt.StoreData(fmt.Sprintf("merged/%s.css", sheet.ID), data)
		}
	}
	return sheet
}

func sheetText(sheet *registry.Sheet) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := sheet.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func requireArg(cmd *cli.Command, name string) (string, error) {
	if cmd.Args().Len() == 0 {
		return "", fmt.Errorf("%s is required", name)
	}
	return cmd.Args().Get(0), nil
}

func resolveContext(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)

	text, err := requireArg(cmd, "CONTEXT")
	if err != nil {
		return err
	}
	wc, err := style.ParseContext(text)
	if err != nil {
		return fmt.Errorf("unable to parse context: %w", err)
	}

	key := keyFromCommand(cmd)
	loadSheet(env, key)
	r := env.Registry.ResolveStyle(key, wc)
	if r.IsNone() {
		env.Log.Info("No style, defaults apply", zap.Stringer("context", wc))
		return nil
	}

	data, err := yaml.Marshal(r.Summary())
	if err != nil {
		return fmt.Errorf("unable to format resolved style: %w", err)
	}
	env.Log.Debug("Context resolved", zap.Stringer("context", wc), zap.Stringer("key", key))
	_, err = os.Stdout.Write(data)
	return err
}

func explainContext(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)

	text, err := requireArg(cmd, "CONTEXT")
	if err != nil {
		return err
	}
	wc, err := style.ParseContext(text)
	if err != nil {
		return fmt.Errorf("unable to parse context: %w", err)
	}

	key := keyFromCommand(cmd)
	sheet := loadSheet(env, key)
	if sheet == nil {
		fmt.Fprint(os.Stdout, dbg.Explain(wc, nil, style.Properties{}, style.NoStyle))
		return nil
	}
	ms, props := sheet.Explain(wc)
	fmt.Fprint(os.Stdout, dbg.Explain(wc, ms, props, sheet.Resolve(wc)))
	return nil
}

func dumpStylesheet(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)

	sheet := loadSheet(env, keyFromCommand(cmd))
	if sheet == nil {
		return nil
	}
	fmt.Fprintf(os.Stdout, "/* %s built %s */\n", sheet.ID, sheet.Built.Format("2006-01-02 15:04:05"))
	_, err := sheet.WriteTo(os.Stdout)
	return err
}

func probeType(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)

	typeName, err := requireArg(cmd, "TYPE")
	if err != nil {
		return err
	}
	key := keyFromCommand(cmd)
	fmt.Fprintf(os.Stdout, "%s: %s\n", typeName, strconv.FormatBool(env.Registry.HasRuleForType(key, typeName)))

	if text := cmd.String("context"); text != "" {
		wc, err := style.ParseContext(text)
		if err != nil {
			return fmt.Errorf("unable to parse context: %w", err)
		}
		fmt.Fprintf(os.Stdout, "%s: %s\n", wc, strconv.FormatBool(env.Registry.HasMatchingRule(key, wc)))
	}
	return nil
}

func listSources(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)

	if cmd.Bool("all") {
		srcs, err := env.StoredSources()
		if err != nil {
			return err
		}
		for _, src := range srcs {
			fmt.Fprintln(os.Stdout, src)
		}
		return nil
	}

	for _, src := range env.Registry.Sources(keyFromCommand(cmd)) {
		status := "present"
		if _, err := env.Store.Stat(src); errors.Is(err, registry.ErrNotFound) {
			status = "missing"
		} else if err != nil {
			status = "error: " + err.Error()
		}
		line := fmt.Sprintf("%-40s %s", src, status)
		if path, ok := env.SourcePath(src); ok {
			line += "\t" + path
		}
		fmt.Fprintln(os.Stdout, line)
	}
	return nil
}

func putSource(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)

	kind, err := registry.ParseKind(cmd.String("kind"))
	if err != nil {
		return err
	}
	src := registry.SourceKey{
		Kind:   kind,
		Scope:  cmd.String("scope"),
		Report: cmd.Bool("report"),
		OrgID:  cmd.String("org"),
	}
	switch {
	case kind == registry.ScopeOverride && src.Scope == "":
		return errors.New("scope override requires --scope")
	case kind == registry.TenantOverride && src.OrgID == "":
		return errors.New("tenant override requires --org")
	case kind < registry.ScopeOverride && (src.Scope != "" || src.OrgID != ""):
		env.Log.Warn("Default stylesheets ignore scope and organization", zap.Stringer("source", src))
		src.Scope, src.OrgID = "", ""
	case kind == registry.ScopeOverride && src.OrgID != "":
		env.Log.Warn("Scope overrides ignore organization", zap.Stringer("source", src))
		src.OrgID = ""
	}

	var data []byte
	if fname := cmd.Args().Get(0); fname != "" {
		data, err = os.ReadFile(fname)
	} else {
		data, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		return fmt.Errorf("unable to read stylesheet: %w", err)
	}

	// refuse to store what cannot be parsed at all
	sheet, err := css.NewParser(env.Log).Parse(data, src.String())
	if err != nil {
		return err
	}
	for _, w := range sheet.Warnings {
		env.Log.Warn("Stylesheet warning", zap.Stringer("source", src), zap.String("warning", w))
	}
	if err := env.StoreSource(src, data); err != nil {
		return err
	}
	env.Log.Info("Stylesheet stored", zap.Stringer("source", src), zap.Int("rules", len(sheet.Rules)))
	return nil
}

func watchSources(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)
	key := keyFromCommand(cmd)

	show := func() {
		if sheet := loadSheet(env, key); sheet != nil {
			fmt.Fprintf(os.Stdout, "/* %s built %s */\n", sheet.ID, sheet.Built.Format("2006-01-02 15:04:05"))
			sheet.WriteTo(os.Stdout) //nolint:errcheck
		}
	}
	show()

	changed := make(chan struct{}, 1)
	env.OnChange(func(n int) {
		if n == 0 {
			return
		}
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	defer env.OnChange(nil)
	if err := env.StartWatch(); err != nil {
		return err
	}

	env.Log.Info("Watching stylesheet sources, interrupt to stop", zap.String("root", env.Cfg.Styles.Root))
	for {
		select {
		case <-ctx.Done():
			return env.StopWatch()
		case <-changed:
			show()
		}
	}
}

func exportSources(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)

	fname, err := requireArg(cmd, "BUNDLE")
	if err != nil {
		return err
	}
	n, err := env.ExportSources(fname)
	if err != nil {
		return fmt.Errorf("unable to export stylesheets: %w", err)
	}
	env.Log.Info("Stylesheets exported", zap.String("bundle", fname), zap.Int("sources", n))
	return nil
}

func importSources(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)

	fname, err := requireArg(cmd, "BUNDLE")
	if err != nil {
		return err
	}
	n, err := env.ImportSources(fname)
	env.Log.Info("Stylesheets imported", zap.String("bundle", fname), zap.Int("sources", n))
	if err != nil {
		return fmt.Errorf("unable to import stylesheets: %w", err)
	}
	return nil
}

func outputConfiguration(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)
	if cmd.Args().Len() > 1 {
		env.Log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[1:]))
	}

	fname := cmd.Args().Get(0)

	var (
		err   error
		data  []byte
		which string
	)

	out := os.Stdout
	if len(fname) > 0 {
		out, err = os.Create(fname)
		if err != nil {
			return fmt.Errorf("unable to create destination file '%s': %w", fname, err)
		}
		defer out.Close()
	}

	if cmd.Bool("default") {
		which = "default"
		data, err = config.Prepare()
	} else {
		which = "actual"
		data, err = config.Dump(env.Cfg)
	}
	if err != nil {
		return fmt.Errorf("unable to get configuration: %w", err)
	}

	if len(fname) == 0 {
		fname = "STDOUT"
	}
	env.Log.Info("Outputing configuration", zap.String("state", which), zap.String("file", fname))

	if _, err = out.Write(data); err != nil {
		return fmt.Errorf("unable to write configuration: %w", err)
	}
	return nil
}
