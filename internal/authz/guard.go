package authz

import (
	"github.com/meteoboard/meteoboard-client/internal/session"
	"github.com/meteoboard/meteoboard-client/internal/tier"
)

// State — состояние охранника маршрута.
type State int

const (
	// StateChecking — авторизация еще не разрешена; защищенное содержимое
	// не показывается ни при каком исходе.
	StateChecking State = iota
	// StateDeniedUnauthenticated — пользователь не залогинен.
	StateDeniedUnauthenticated
	// StateDeniedForbidden — залогинен, но не проходит требование маршрута.
	StateDeniedForbidden
	// StateGranted — защищенное содержимое можно показывать.
	StateGranted
)

func (s State) String() string {
	switch s {
	case StateChecking:
		return "checking"
	case StateDeniedUnauthenticated:
		return "denied_unauthenticated"
	case StateDeniedForbidden:
		return "denied_forbidden"
	case StateGranted:
		return "granted"
	default:
		return "unknown"
	}
}

// Guard — охранник маршрута. Собственного состояния не держит:
// решение каждый раз выводится из переданного снимка, поэтому
// принудительный выход немедленно закрывает уже открытый маршрут.
type Guard struct {
	RequireAdmin bool      // Требовать признак администратора
	MinTier      tier.Tier // Минимальный тариф; пустое значение — не задан
}

// Evaluate вычисляет состояние охранника по снимку сессии.
// Пока снимок грузится, результат всегда StateChecking.
func (g Guard) Evaluate(snap session.Snapshot) State {
	if snap.IsLoading {
		return StateChecking
	}
	if !snap.IsAuthenticated {
		return StateDeniedUnauthenticated
	}
	if g.RequireAdmin && !snap.IsAdmin {
		return StateDeniedForbidden
	}
	if g.MinTier != "" && !tier.IsAtLeast(snap.Tier, g.MinTier) {
		return StateDeniedForbidden
	}
	return StateGranted
}

// Watch подписывает охранника на смену снимков менеджера: при каждой
// смене состояния вызывается fn со свежим решением. Возвращает функцию
// отписки. Первое решение доставляется сразу.
func (g Guard) Watch(m *session.Manager, fn func(State)) func() {
	fn(g.Evaluate(m.Snapshot()))
	return m.Subscribe(func(snap session.Snapshot) {
		fn(g.Evaluate(snap))
	})
}
