// Package plans содержит статическую таблицу тарифов. Тарифы не хранятся
// в базе данных: набор фиксирован, меняется только вместе с кодом.
package plans

import "fmt"

// Plan описывает один тариф подписки.
type Plan struct {
	Key   string // Ключ тарифа, используется в callback-данных и в БД
	Name  string // Отображаемое название
	Price string // Отображаемая цена
	Days  int    // Длительность в днях
}

var table = map[string]Plan{
	"plan1": {Key: "plan1", Name: "1 Month", Price: "₹99", Days: 30},
	"plan2": {Key: "plan2", Name: "6 Months", Price: "₹399", Days: 180},
	"plan3": {Key: "plan3", Name: "1 Year", Price: "₹1999", Days: 365},
	"plan4": {Key: "plan4", Name: "Lifetime", Price: "₹2999", Days: 36500},
}

// order порядок вывода тарифов в клавиатурах и списках.
var order = []string{"plan1", "plan2", "plan3", "plan4"}

// Get возвращает тариф по ключу.
func Get(key string) (Plan, error) {
	p, ok := table[key]
	if !ok {
		return Plan{}, fmt.Errorf("unknown plan key: %q", key)
	}
	return p, nil
}

// Exists сообщает, существует ли тариф с таким ключом.
func Exists(key string) bool {
	_, ok := table[key]
	return ok
}

// All возвращает тарифы в фиксированном порядке.
func All() []Plan {
	result := make([]Plan, 0, len(order))
	for _, key := range order {
		result = append(result, table[key])
	}
	return result
}

// Name возвращает название тарифа либо прочерк, если ключ неизвестен или пуст.
func Name(key *string) string {
	if key == nil {
		return "—"
	}
	p, ok := table[*key]
	if !ok {
		return "—"
	}
	return p.Name
}
