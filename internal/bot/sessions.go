package bot

import "sync"

// Sessions хранит короткоживущее состояние диалогов в памяти. Состояние
// переживает только процесс: после рестарта пользователь просто выбирает
// тариф заново.
type Sessions struct {
	mu sync.Mutex

	selectedPlan map[int64]string
	// Режимы администратора взаимоисключающие: следующее его сообщение
	// трактуется либо как текст рассылки, либо как ответ пользователю.
	composingBroadcast bool
	replyTarget        int64
}

// NewSessions создает новый экземпляр Sessions.
func NewSessions() *Sessions {
	return &Sessions{selectedPlan: make(map[int64]string)}
}

// SelectPlan запоминает тариф, выбранный пользователем.
func (s *Sessions) SelectPlan(telegramID int64, planKey string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectedPlan[telegramID] = planKey
}

// SelectedPlan возвращает последний выбранный тариф пользователя.
func (s *Sessions) SelectedPlan(telegramID int64) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key, ok := s.selectedPlan[telegramID]
	return key, ok
}

// StartBroadcast переводит администратора в режим ввода текста рассылки.
func (s *Sessions) StartBroadcast() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.composingBroadcast = true
	s.replyTarget = 0
}

// TakeBroadcast снимает режим рассылки и сообщает, был ли он активен.
func (s *Sessions) TakeBroadcast() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	active := s.composingBroadcast
	s.composingBroadcast = false
	return active
}

// StartReply переводит администратора в режим ответа пользователю.
func (s *Sessions) StartReply(telegramID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replyTarget = telegramID
	s.composingBroadcast = false
}

// TakeReply снимает режим ответа и возвращает адресата, если режим был активен.
func (s *Sessions) TakeReply() (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	target := s.replyTarget
	s.replyTarget = 0
	return target, target != 0
}
