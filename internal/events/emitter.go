package events

import (
	"context"

	"github.com/wailsapp/wails/v2/pkg/runtime"
)

var Emit = func(ctx context.Context, name string, evt DocumentEvent) {}

func EnableRuntimeEmitter() {
	Emit = func(ctx context.Context, name string, evt DocumentEvent) {
		runtime.EventsEmit(ctx, name, evt)
		logRuntimeEvent(ctx, name, evt)
	}
}

func SetCustomEmitter(f func(ctx context.Context, name string, evt DocumentEvent)) {
	if f == nil {
		Emit = func(context.Context, string, DocumentEvent) {}
		return
	}
	Emit = f
}
