// Package tier описывает упорядоченный набор тарифных уровней подписки
// и чистые функции сравнения между ними.
//
// Сравнение уровней всегда выполняется по порядковому рангу, а не по
// строковому равенству: проверка "не ниже researcher" должна пропускать
// и professional.
package tier

import (
	"fmt"
	"strings"
)

// Tier представляет тарифный уровень подписки пользователя.
type Tier string

const (
	// Free — бесплатный уровень, выдается по умолчанию.
	Free Tier = "free"
	// Researcher — платный уровень для исследователей.
	Researcher Tier = "researcher"
	// Professional — максимальный платный уровень.
	Professional Tier = "professional"
)

// ranks задает порядковые номера уровней, строго возрастающие с уровнем подписки.
var ranks = map[Tier]int{
	Free:         0,
	Researcher:   1,
	Professional: 2,
}

// All возвращает все известные уровни в порядке возрастания.
func All() []Tier {
	return []Tier{Free, Researcher, Professional}
}

// Known сообщает, является ли значение известным тарифным уровнем.
func Known(t Tier) bool {
	_, ok := ranks[t]
	return ok
}

// Rank возвращает порядковый номер уровня. Для неизвестного уровня
// второй результат равен false.
func Rank(t Tier) (int, bool) {
	r, ok := ranks[t]
	return r, ok
}

// IsAtLeast сообщает, покрывает ли уровень t требуемый уровень required.
// Неизвестный уровень с любой стороны дает false: авторизация закрывается,
// а не открывается.
func IsAtLeast(t, required Tier) bool {
	tr, ok := ranks[t]
	if !ok {
		return false
	}
	rr, ok := ranks[required]
	if !ok {
		return false
	}
	return tr >= rr
}

// Parse разбирает строковое представление уровня без учета регистра.
func Parse(s string) (Tier, error) {
	t := Tier(strings.ToLower(strings.TrimSpace(s)))
	if !Known(t) {
		return "", fmt.Errorf("tier.Parse: unknown tier %q", s)
	}
	return t, nil
}
