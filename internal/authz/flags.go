// Package authz реализует авторизационную политику клиентского ядра:
// декларативный шлюз фич (Gate), охранник маршрутов (Guard) и реестр
// фиче-флагов процесса.
//
// Политика разрешения фичи — единый приоритетный контракт: явное
// переопределение, затем минимальный тариф, затем фиче-флаг, затем
// персональный набор фич пользователя. Любая ошибка вычисления
// закрывает доступ, а не открывает его.
package authz

import "sync"

// Реестр фиче-флагов процесса: запасной источник для шлюзов, которым
// не передали карту флагов явно. Живет на весь срок страницы/процесса.
var (
	flagsMu sync.RWMutex
	flags   = map[string]bool{}
)

// RegisterFlag задает значение фиче-флага в реестре процесса.
func RegisterFlag(name string, enabled bool) {
	flagsMu.Lock()
	defer flagsMu.Unlock()
	flags[name] = enabled
}

// FlagEnabled возвращает значение флага из реестра процесса.
// Второй результат равен false, если флаг не зарегистрирован.
func FlagEnabled(name string) (bool, bool) {
	flagsMu.RLock()
	defer flagsMu.RUnlock()
	v, ok := flags[name]
	return v, ok
}

// ResetFlags очищает реестр. Используется в тестах.
func ResetFlags() {
	flagsMu.Lock()
	defer flagsMu.Unlock()
	flags = map[string]bool{}
}
