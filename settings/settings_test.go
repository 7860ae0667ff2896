package settings

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	yaml "gopkg.in/yaml.v2"

	"github.com/ptgott/one-mail/mailerr"
)

func TestDefaults(t *testing.T) {
	s := New()
	assert.Equal(t, DefaultServer, s.Server())
	assert.Equal(t, DefaultAuth, s.AuthenticationEnabled())
	assert.Equal(t, DefaultUsername, s.Username())
	assert.Equal(t, DefaultPassword, s.Password())
	assert.Equal(t, DefaultSecurity, s.SecurityType())
	assert.Equal(t, DefaultPort, s.Port())
	assert.Equal(t, "localhost", s.Server())
	assert.Equal(t, 25, s.Port())
}

func TestSetters(t *testing.T) {
	s := New()
	require.NoError(t, s.SetServer(" mail.server.com "))
	s.SetAuthenticationEnabled(true)
	s.SetUsername("username")
	s.SetPassword("password")
	require.NoError(t, s.SetSecurityType(SecurityTLS))
	require.NoError(t, s.SetPort(587))

	assert.Equal(t, Values{
		Server:                "mail.server.com",
		Port:                  587,
		AuthenticationEnabled: true,
		Username:              "username",
		Password:              "password",
		SecurityType:          SecurityTLS,
	}, s.Values())
	assert.Equal(t, "password", s.Password().Reveal())
}

func TestSetterErrors(t *testing.T) {
	s := New()

	assert.ErrorIs(t, s.SetServer(""), mailerr.ErrInvalidArgument)
	assert.ErrorIs(t, s.SetServer("   "), mailerr.ErrInvalidArgument)
	assert.ErrorIs(t, s.SetPort(-2), mailerr.ErrInvalidArgument)
	assert.ErrorIs(t, s.SetPort(MaxPort+1), mailerr.ErrInvalidArgument)
	assert.ErrorIs(t, s.SetSecurityType(SecurityType(42)), mailerr.ErrInvalidArgument)

	// Nothing changed
	assert.Equal(t, New().Values(), s.Values())

	require.NoError(t, s.SetPort(MinPort))
	require.NoError(t, s.SetPort(MaxPort))
}

func TestFromProperties(t *testing.T) {
	props := map[string]string{
		KeyServer:   "mail.server.com",
		KeyAuth:     "true",
		KeyUsername: "username",
		KeyPassword: "password",
		KeySecurity: "TLS",
		KeyPort:     "587",
		"unrelated": "ignored",
	}

	s, err := FromProperties(props)
	require.NoError(t, err)
	assert.Equal(t, "mail.server.com", s.Server())
	assert.True(t, s.AuthenticationEnabled())
	assert.Equal(t, "username", s.Username())
	assert.Equal(t, "password", s.Password().Reveal())
	assert.Equal(t, SecurityTLS, s.SecurityType())
	assert.Equal(t, 587, s.Port())
}

func TestFromEmptyProperties(t *testing.T) {
	s, err := FromProperties(map[string]string{})
	require.NoError(t, err)
	assert.Equal(t, New().Values(), s.Values())

	s, err = FromProperties(nil)
	require.NoError(t, err)
	assert.Equal(t, New().Values(), s.Values())
}

func TestFromPropertiesErrors(t *testing.T) {
	testCases := []struct {
		description string
		props       map[string]string
		mentions    []string
	}{
		{"empty server", map[string]string{KeyServer: ""}, []string{KeyServer}},
		{"empty auth", map[string]string{KeyAuth: ""}, []string{KeyAuth}},
		{"empty username", map[string]string{KeyUsername: " "}, []string{KeyUsername}},
		{"empty password", map[string]string{KeyPassword: ""}, []string{KeyPassword}},
		{"empty security", map[string]string{KeySecurity: ""}, []string{KeySecurity}},
		{"empty port", map[string]string{KeyPort: ""}, []string{KeyPort}},
		{"negative port", map[string]string{KeyPort: "-2"}, []string{KeyPort, "-2"}},
		{"port too large", map[string]string{KeyPort: "70000"}, []string{KeyPort, "70000"}},
		{"port not a number", map[string]string{KeyPort: "smtp"}, []string{KeyPort, "smtp"}},
		{"auth not a bool", map[string]string{KeyAuth: "maybe"}, []string{KeyAuth, "maybe"}},
		{"unknown security", map[string]string{KeySecurity: "SMTPS"}, []string{KeySecurity, "SMTPS"}},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			s, err := FromProperties(tc.props)
			require.Error(t, err)
			assert.ErrorIs(t, err, mailerr.ErrInvalidArgument)
			assert.Nil(t, s)
			for _, m := range tc.mentions {
				assert.Contains(t, err.Error(), m)
			}
		})
	}
}

func TestParseSecurityType(t *testing.T) {
	testCases := []struct {
		input string
		want  SecurityType
	}{
		{"none", SecurityNone},
		{"NONE", SecurityNone},
		{" ssl ", SecuritySSL},
		{"Tls", SecurityTLS},
	}
	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			st, err := ParseSecurityType(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.want, st)
		})
	}

	_, err := ParseSecurityType("starttls")
	assert.ErrorIs(t, err, mailerr.ErrInvalidArgument)
	assert.Equal(t, "SecurityType(9)", SecurityType(9).String())
}

func TestPropertiesRoundTrip(t *testing.T) {
	s := New()
	require.NoError(t, s.SetServer("smtp.example.com"))
	require.NoError(t, s.SetSecurityType(SecuritySSL))
	require.NoError(t, s.SetPort(465))
	s.SetAuthenticationEnabled(true)
	s.SetUsername("me")
	s.SetPassword("hunter2")

	r, err := FromProperties(s.Properties())
	require.NoError(t, err)
	assert.Equal(t, s.Values(), r.Values())

	r, err = FromProperties(New().Properties())
	require.NoError(t, err)
	assert.Equal(t, New().Values(), r.Values())
}

func TestUnmarshalYAML(t *testing.T) {
	testCases := []struct {
		description   string
		input         string
		shouldBeError bool
		want          Values
	}{
		{
			description: "valid case",
			input: `server: smtp.example.com
port: 587
auth: true
username: MyUser123
password: 123456-A_BCDE
security: tls
`,
			want: Values{
				Server:                "smtp.example.com",
				Port:                  587,
				AuthenticationEnabled: true,
				Username:              "MyUser123",
				Password:              "123456-A_BCDE",
				SecurityType:          SecurityTLS,
			},
		},
		{
			description: "quoted scalars",
			input: `server: "smtp.example.com"
port: "2525"
`,
			want: Values{
				Server:       "smtp.example.com",
				Port:         2525,
				SecurityType: SecurityNone,
			},
		},
		{
			description: "empty mapping uses defaults",
			input:       `{}`,
			want:        New().Values(),
		},
		{
			description:   "key without a value",
			input:         "server:\n",
			shouldBeError: true,
		},
		{
			description:   "out of range port",
			input:         "port: 70000\n",
			shouldBeError: true,
		},
		{
			description:   "nested value",
			input:         "server:\n  host: example.com\n",
			shouldBeError: true,
		},
		{
			description: "unknown keys of any shape are ignored",
			input: `server: smtp.example.com
extra:
  nested: true
list: [1, 2]
`,
			want: Values{
				Server:       "smtp.example.com",
				Port:         DefaultPort,
				SecurityType: SecurityNone,
			},
		},
		{
			description:   "not a map",
			input:         `[]`,
			shouldBeError: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			var c ConnectionSettings
			err := yaml.Unmarshal([]byte(tc.input), &c)
			if (err != nil) != tc.shouldBeError {
				t.Fatalf(
					"%v: unexpected error status--wanted %v but got %v with error %v",
					tc.description,
					tc.shouldBeError,
					err != nil,
					err,
				)
			}
			if !tc.shouldBeError {
				assert.Equal(t, tc.want, c.Values())
			}
		})
	}
}

func TestPasswordIsRedacted(t *testing.T) {
	s := New()
	s.SetPassword("hunter2")
	s.SetUsername("me")

	for _, f := range []string{"%v", "%+v", "%#v", "%s"} {
		out := fmt.Sprintf(f, s.Values())
		assert.NotContains(t, out, "hunter2", "format %v", f)
	}

	var buf bytes.Buffer
	l := zerolog.New(&buf)
	l.Info().Object("smtp", s).Msg("connecting")
	assert.NotContains(t, buf.String(), "hunter2")
	assert.Contains(t, buf.String(), `"username":"me"`)
	assert.Contains(t, buf.String(), `"server":"localhost"`)
	assert.Equal(t, "", Secret("").String())
}

// Run with -race to be useful
func TestConcurrentAccess(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = s.SetPort(1000 + n)
				_ = s.SetServer(strings.Repeat("a", n+1) + ".example.com")
				s.SetAuthenticationEnabled(j%2 == 0)
			}
		}(i)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				v := s.Values()
				_ = v.Port
				_ = s.Server()
				_ = s.Properties()
			}
		}()
	}
	wg.Wait()

	p := s.Port()
	assert.True(t, p >= 1000 && p < 1008)
}
