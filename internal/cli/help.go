package cli

import (
	"fmt"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/lipgloss"
)

// Help styles
var (
	helpTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			MarginBottom(1)

	helpDescStyle = lipgloss.NewStyle().
			Foreground(warnColor).
			Italic(true).
			MarginBottom(1)

	helpSectionStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(warnColor).
				MarginTop(1)

	helpFlagStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00AA00")).
			Bold(true)

	helpArgStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00AAAA")).
			Bold(true)

	helpDefaultStyle = lipgloss.NewStyle().
				Foreground(mutedColor).
				Italic(true)
)

// StyledHelpPrinter returns a kong help printer with Lipgloss styling.
// Flags are listed under their kong group, ungrouped flags last.
func StyledHelpPrinter(options kong.HelpOptions) kong.HelpPrinter {
	return func(options kong.HelpOptions, ctx *kong.Context) error {
		var sb strings.Builder

		sb.WriteString(helpTitleStyle.Render("Mixplay 🎚"))
		sb.WriteString("\n")
		sb.WriteString(helpDescStyle.Render("Preview a two-track mix through FFmpeg without writing a file"))
		sb.WriteString("\n")

		sb.WriteString(helpSectionStyle.Render("Usage:"))
		fmt.Fprintf(&sb, "\n  %s [flags] <audio1> <audio2>\n", ctx.Model.Name)

		if args := positionals(ctx); len(args) > 0 {
			sb.WriteString("\n")
			sb.WriteString(helpSectionStyle.Render("Arguments:"))
			sb.WriteString("\n")
			for _, arg := range args {
				sb.WriteString("  ")
				sb.WriteString(helpArgStyle.Render(arg.name))
				if arg.help != "" {
					sb.WriteString("  " + arg.help)
				}
				sb.WriteString("\n")
			}
		}

		for _, section := range flagSections(ctx) {
			sb.WriteString("\n")
			sb.WriteString(helpSectionStyle.Render(section.title + ":"))
			sb.WriteString("\n")
			for _, f := range section.flags {
				sb.WriteString("  ")
				sb.WriteString(helpFlagStyle.Render(f.flags))
				if f.help != "" {
					sb.WriteString("  " + f.help)
				}
				if f.defaultVal != "" {
					sb.WriteString(" ")
					sb.WriteString(helpDefaultStyle.Render("(default: " + f.defaultVal + ")"))
				}
				sb.WriteString("\n")
			}
		}

		sb.WriteString("\n")
		fmt.Fprint(ctx.Stdout, sb.String())
		return nil
	}
}

type argument struct {
	name string
	help string
}

type flagLine struct {
	flags      string
	help       string
	defaultVal string
}

type section struct {
	title string
	flags []flagLine
}

func positionals(ctx *kong.Context) []argument {
	var args []argument
	for _, arg := range ctx.Model.Node.Positional {
		args = append(args, argument{name: arg.Summary(), help: arg.Help})
	}
	return args
}

// flagSections groups the model's flags in declaration order of their groups
func flagSections(ctx *kong.Context) []section {
	var sections []section
	index := map[string]int{}

	add := func(title string, line flagLine) {
		i, ok := index[title]
		if !ok {
			i = len(sections)
			index[title] = i
			sections = append(sections, section{title: title})
		}
		sections[i].flags = append(sections[i].flags, line)
	}

	var general []flagLine
	for _, f := range ctx.Model.Node.Flags {
		if f.Hidden {
			continue
		}
		line := describeFlag(f)
		if f.Group == nil {
			general = append(general, line)
			continue
		}
		add(f.Group.Title, line)
	}

	for _, line := range general {
		add("Flags", line)
	}
	return sections
}

func describeFlag(f *kong.Flag) flagLine {
	long := f.Name
	if f.IsBool() && f.Tag.Negatable != "" {
		long = "[no-]" + f.Name
	}
	name := "--" + long
	if f.Short != 0 {
		name = fmt.Sprintf("-%c, --%s", f.Short, long)
	}
	if !f.IsBool() {
		placeholder := f.PlaceHolder
		if placeholder == "" {
			placeholder = f.Name
		}
		name += "=" + strings.ToUpper(placeholder)
	}

	line := flagLine{flags: name, help: f.Help}
	if !f.IsBool() && f.Default != "" {
		line.defaultVal = f.Default
	}
	return line
}
