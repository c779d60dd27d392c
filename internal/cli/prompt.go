package cli

import (
	"github.com/pterm/pterm"
)

// Prompter 读取一行用户输入
type Prompter interface {
	Prompt(question string) (string, error)
}

type ptermPrompter struct{}

func (ptermPrompter) Prompt(question string) (string, error) {
	return pterm.DefaultInteractiveTextInput.Show(question)
}

// ptermConfirmer 是/否确认，默认不删除
type ptermConfirmer struct{}

func (ptermConfirmer) Confirm(question string) (bool, error) {
	return pterm.DefaultInteractiveConfirm.
		WithDefaultValue(false).
		Show(question)
}
