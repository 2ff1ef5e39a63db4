package builtin

import (
	"context"

	"github.com/dokkiitech/LinkDeck-sub000/domain/capability"
)

// Echo returns its text parameter unchanged.
func Echo() capability.Tool {
	return capability.NewTool(ToolEcho).
		WithDescription("Echo back the given text").
		WithCategory(capability.CategoryBuiltin).
		WithSchema(capability.NewSchema().
			Field("text", capability.Required(), capability.TypeOf(capability.TypeString), capability.MaxLength(10000))).
		WithHandler(func(_ context.Context, params map[string]any) (any, error) {
			return map[string]any{"text": params["text"]}, nil
		}).
		MustBuild()
}
