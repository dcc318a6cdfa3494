package mocks

import "github.com/phrazzld/taskman-api/internal/service/auth"

// MockPasswords implements auth.PasswordHasher and auth.PasswordVerifier.
// By default Hash prefixes the password with "hashed:" and Compare accepts a
// password whose hash matches that form.
type MockPasswords struct {
	HashFn    func(password string) (string, error)
	CompareFn func(hashedPassword, password string) error

	HashCalls    CallLog[string]
	CompareCalls CallLog[[2]string]
}

var (
	_ auth.PasswordHasher   = (*MockPasswords)(nil)
	_ auth.PasswordVerifier = (*MockPasswords)(nil)
)

// Hash implements auth.PasswordHasher
func (m *MockPasswords) Hash(password string) (string, error) {
	m.HashCalls.record(password)
	if m.HashFn != nil {
		return m.HashFn(password)
	}
	return "hashed:" + password, nil
}

// Compare implements auth.PasswordVerifier
func (m *MockPasswords) Compare(hashedPassword, password string) error {
	m.CompareCalls.record([2]string{hashedPassword, password})
	if m.CompareFn != nil {
		return m.CompareFn(hashedPassword, password)
	}
	if hashedPassword != "hashed:"+password {
		return auth.ErrInvalidCredentials
	}
	return nil
}
