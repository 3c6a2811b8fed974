package dispatch

import (
	"github.com/stretchr/testify/mock"

	"github.com/roach88/scenesync/internal/native"
	"github.com/roach88/scenesync/internal/session"
)

// mockTranslator fails the test on any call that was not set up with On.
type mockTranslator struct {
	mock.Mock
}

func (m *mockTranslator) Initialize() { m.Called() }
func (m *mockTranslator) CleanUp()    { m.Called() }

func (m *mockTranslator) Create(n native.Object) *session.Object {
	obj, _ := m.Called(n).Get(0).(*session.Object)
	return obj
}

func (m *mockTranslator) OnCreate(obj *session.Object, childIndex int) { m.Called(obj, childIndex) }
func (m *mockTranslator) OnDelete(obj *session.Object)                 { m.Called(obj) }
func (m *mockTranslator) OnLock(obj *session.Object)                   { m.Called(obj) }
func (m *mockTranslator) OnUnlock(obj *session.Object)                 { m.Called(obj) }
func (m *mockTranslator) OnLockOwnerChange(obj *session.Object)        { m.Called(obj) }
func (m *mockTranslator) OnDirectLockChange(obj *session.Object)       { m.Called(obj) }

func (m *mockTranslator) OnParentChange(obj *session.Object, childIndex int) {
	m.Called(obj, childIndex)
}

func (m *mockTranslator) OnPropertyChange(prop session.Property) { m.Called(prop) }

func (m *mockTranslator) OnRemoveField(dict *session.DictionaryProperty, name string) {
	m.Called(dict, name)
}

func (m *mockTranslator) OnListAdd(list *session.ListProperty, index, count int) {
	m.Called(list, index, count)
}

func (m *mockTranslator) OnListRemove(list *session.ListProperty, index, count int) {
	m.Called(list, index, count)
}

func (m *mockTranslator) OnUPropertyChange(obj *session.Object, n native.Object, prop native.Property) bool {
	return m.Called(obj, n, prop).Bool(0)
}

func (m *mockTranslator) PostPropertyChange(n native.Object, prop native.Property) {
	m.Called(n, prop)
}

func (m *mockTranslator) OnUndoRedo(obj *session.Object, n native.Object) { m.Called(obj, n) }
