package client

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"github.com/cloo-solutions/podquery/internal/domain"
)

var _ pflag.Value = (*categoryFlag)(nil)

// categoryFlag accepts only the search categories, case-insensitively.
type categoryFlag struct {
	value domain.Category
}

func newCategoryFlag(def domain.Category) *categoryFlag {
	return &categoryFlag{value: def}
}

func (f *categoryFlag) String() string {
	return string(f.value)
}

func (f *categoryFlag) Set(s string) error {
	c := domain.Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.IsValid() {
		return fmt.Errorf("must be one of %s", strings.Join(f.Choices(), ", "))
	}
	f.value = c
	return nil
}

func (f *categoryFlag) Type() string {
	return "category"
}

func (f *categoryFlag) Category() domain.Category {
	return f.value
}

// Choices lists the accepted values for --help-json.
func (f *categoryFlag) Choices() []string {
	names := make([]string, 0, len(domain.Categories()))
	for _, c := range domain.Categories() {
		names = append(names, string(c))
	}
	return names
}
