package mock

import (
	context "context"
	reflect "reflect"

	domain "github.com/ellavondegurechaff/waifugrab/waifubot/domain"
	interfaces "github.com/ellavondegurechaff/waifugrab/waifubot/interfaces"
	gomock "go.uber.org/mock/gomock"
)

// MockMessenger is a mock of Messenger interface.
type MockMessenger struct {
	ctrl     *gomock.Controller
	recorder *MockMessengerMockRecorder
	isgomock struct{}
}

// MockMessengerMockRecorder is the mock recorder for MockMessenger.
type MockMessengerMockRecorder struct {
	mock *MockMessenger
}

// NewMockMessenger creates a new mock instance.
func NewMockMessenger(ctrl *gomock.Controller) *MockMessenger {
	mock := &MockMessenger{ctrl: ctrl}
	mock.recorder = &MockMessengerMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockMessenger) EXPECT() *MockMessengerMockRecorder {
	return m.recorder
}

// AnswerInteraction mocks base method.
func (m *MockMessenger) AnswerInteraction(ctx context.Context, id domain.InteractionID, opts interfaces.AnswerOptions) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "AnswerInteraction", ctx, id, opts)
	ret0, _ := ret[0].(error)
	return ret0
}

// AnswerInteraction indicates an expected call of AnswerInteraction.
func (mr *MockMessengerMockRecorder) AnswerInteraction(ctx, id, opts any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "AnswerInteraction", reflect.TypeOf((*MockMessenger)(nil).AnswerInteraction), ctx, id, opts)
}

// DeleteMessage mocks base method.
func (m *MockMessenger) DeleteMessage(ctx context.Context, ref domain.MessageRef) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "DeleteMessage", ctx, ref)
	ret0, _ := ret[0].(error)
	return ret0
}

// DeleteMessage indicates an expected call of DeleteMessage.
func (mr *MockMessengerMockRecorder) DeleteMessage(ctx, ref any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "DeleteMessage", reflect.TypeOf((*MockMessenger)(nil).DeleteMessage), ctx, ref)
}

// EditCaption mocks base method.
func (m *MockMessenger) EditCaption(ctx context.Context, ref domain.MessageRef, caption string, opts interfaces.SendOptions) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "EditCaption", ctx, ref, caption, opts)
	ret0, _ := ret[0].(error)
	return ret0
}

// EditCaption indicates an expected call of EditCaption.
func (mr *MockMessengerMockRecorder) EditCaption(ctx, ref, caption, opts any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "EditCaption", reflect.TypeOf((*MockMessenger)(nil).EditCaption), ctx, ref, caption, opts)
}

// EditMedia mocks base method.
func (m *MockMessenger) EditMedia(ctx context.Context, ref domain.MessageRef, mediaRef string, caption string, opts interfaces.SendOptions) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "EditMedia", ctx, ref, mediaRef, caption, opts)
	ret0, _ := ret[0].(error)
	return ret0
}

// EditMedia indicates an expected call of EditMedia.
func (mr *MockMessengerMockRecorder) EditMedia(ctx, ref, mediaRef, caption, opts any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "EditMedia", reflect.TypeOf((*MockMessenger)(nil).EditMedia), ctx, ref, mediaRef, caption, opts)
}

// EditText mocks base method.
func (m *MockMessenger) EditText(ctx context.Context, ref domain.MessageRef, text string, opts interfaces.SendOptions) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "EditText", ctx, ref, text, opts)
	ret0, _ := ret[0].(error)
	return ret0
}

// EditText indicates an expected call of EditText.
func (mr *MockMessengerMockRecorder) EditText(ctx, ref, text, opts any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "EditText", reflect.TypeOf((*MockMessenger)(nil).EditText), ctx, ref, text, opts)
}

// SendMedia mocks base method.
func (m *MockMessenger) SendMedia(ctx context.Context, chat domain.ChatID, mediaRef string, caption string, opts interfaces.SendOptions) (domain.MessageRef, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "SendMedia", ctx, chat, mediaRef, caption, opts)
	ret0, _ := ret[0].(domain.MessageRef)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// SendMedia indicates an expected call of SendMedia.
func (mr *MockMessengerMockRecorder) SendMedia(ctx, chat, mediaRef, caption, opts any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "SendMedia", reflect.TypeOf((*MockMessenger)(nil).SendMedia), ctx, chat, mediaRef, caption, opts)
}

// SendText mocks base method.
func (m *MockMessenger) SendText(ctx context.Context, chat domain.ChatID, text string, opts interfaces.SendOptions) (domain.MessageRef, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "SendText", ctx, chat, text, opts)
	ret0, _ := ret[0].(domain.MessageRef)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// SendText indicates an expected call of SendText.
func (mr *MockMessengerMockRecorder) SendText(ctx, chat, text, opts any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "SendText", reflect.TypeOf((*MockMessenger)(nil).SendText), ctx, chat, text, opts)
}
