package authz

import (
	"log/slog"

	"github.com/meteoboard/meteoboard-client/internal/session"
	"github.com/meteoboard/meteoboard-client/internal/tier"
)

// SnapshotSource поставляет текущий снимок сессии. Реализуется менеджером
// сессии; в тестах и изолированных виджетах подменяется SnapshotFunc.
type SnapshotSource interface {
	Snapshot() session.Snapshot
}

// SnapshotFunc адаптирует функцию под SnapshotSource.
type SnapshotFunc func() session.Snapshot

// Snapshot реализует SnapshotSource.
func (f SnapshotFunc) Snapshot() session.Snapshot { return f() }

// Gate — декларативная граница авторизации для поддерева интерфейса.
// Поля-входы проверяются строго по приоритету; шлюз без единого входа
// разрешает показ: шлюзы — это опциональные ограничения, а не
// опциональные разрешения.
type Gate struct {
	Override *bool           // Явное переопределение, побеждает безусловно
	MinTier  tier.Tier       // Минимальный тариф; пустое значение — не задан
	Flag     string          // Имя фиче-флага
	Flags    map[string]bool // Карта флагов, приоритетнее реестра процесса
	Feature  string          // Имя фичи из персонального набора пользователя
	Log      *slog.Logger    // Логгер для ошибок вычисления; nil — slog.Default
}

// Allowed вычисляет решение шлюза по текущему снимку источника.
// Решение не кэшируется: каждый вызов видит актуального пользователя.
// Паника при вычислении закрывает доступ.
func (g Gate) Allowed(src SnapshotSource) (allowed bool) {
	log := g.Log
	if log == nil {
		log = slog.Default()
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error("feature gate evaluation failed, denying", slog.Any("panic", r))
			allowed = false
		}
	}()

	if g.Override != nil {
		return *g.Override
	}

	snap := src.Snapshot()

	if g.MinTier != "" {
		if !snap.IsAuthenticated {
			return false
		}
		return tier.IsAtLeast(snap.Tier, g.MinTier)
	}

	if g.Flag != "" {
		if v, ok := g.Flags[g.Flag]; ok {
			return v
		}
		v, _ := FlagEnabled(g.Flag)
		return v
	}

	if g.Feature != "" {
		return snap.User != nil && snap.User.HasFeature(g.Feature)
	}

	return true
}

// Select возвращает granted либо fallback по решению шлюза.
// Удобен для выбора одного из двух поддеревьев представления.
func Select[T any](g Gate, src SnapshotSource, granted, fallback T) T {
	if g.Allowed(src) {
		return granted
	}
	return fallback
}
