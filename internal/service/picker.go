package service

import "math/rand"

// Picker выбирает индекс в диапазоне [0, n).
type Picker interface {
	Pick(n int) int
}

type randomPicker struct{}

// NewRandomPicker - равномерный выбор на основе math/rand
func NewRandomPicker() Picker {
	return randomPicker{}
}

func (randomPicker) Pick(n int) int {
	return rand.Intn(n)
}
