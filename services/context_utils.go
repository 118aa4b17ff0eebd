package services

import "context"

// persistentContext keeps ctx values but drops its cancellation, for work
// that must outlive the request that started it.
func persistentContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return context.WithoutCancel(ctx)
}
