package serde

import (
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"github.com/lk2023060901/querydesk-go/internal/json"
	"github.com/lk2023060901/querydesk-go/pkg/util/merr"
)

type testAuth struct {
	Username string
	Password string
}

type testOptions struct {
	Host string
	Port int
	SSL  *bool
}

type testConnection struct {
	ID       string
	Name     string
	Driver   string
	Options  *testOptions
	Auth     *testAuth
	Tags     []string
	Params   map[string]any
	internal string
}

type testWorkspace struct {
	Connections []*testConnection
}

type testItem struct {
	ID   int64
	Tags []string
}

type recordingNotifier struct {
	errs []*Error
}

func (n *recordingNotifier) NotifyConfigError(err *Error) {
	n.errs = append(n.errs, err)
}

type SerdeSuite struct {
	suite.Suite
	reg      *Registry
	notifier *recordingNotifier
}

func (s *SerdeSuite) SetupTest() {
	s.reg = NewRegistry()
	s.notifier = &recordingNotifier{}
	s.reg.SetNotifier(s.notifier)

	_, err := Register[testAuth](s.reg,
		Field("Username", String, Name("username"), Required(), Format("identifier")),
		Field("Password", String, Name("password"), Skip(SkipSerialize)),
	)
	s.Require().NoError(err)
	_, err = Register[testOptions](s.reg,
		Field("Host", String, Name("host"), Required(), Trim()),
		Field("Port", Integer, Name("port"), Min(1), Max(65535)),
		Field("SSL", Boolean, Name("ssl")),
	)
	s.Require().NoError(err)
	_, err = Register[testConnection](s.reg,
		Field("ID", Identifier, Name("id"), Required()),
		Field("Name", String, Name("name"), Trim(), MaxLength(16)),
		Field("Driver", String, Name("driver"), OneOf("postgres", "mysql"), OmitEmpty()),
		Field("Options", Object, Name("options"), WithFactory(New[testOptions]())),
		Field("Auth", Object, Name("auth"), WithFactory(New[testAuth]())),
		Field("Tags", Array, Name("tags"), Items(String, MinLength(1))),
		Field("Params", Any, Name("params")),
	)
	s.Require().NoError(err)
	_, err = Register[testWorkspace](s.reg,
		Field("Connections", Array, Name("connections"),
			Items(Object, WithFactory(New[testConnection]()))),
	)
	s.Require().NoError(err)
	_, err = Register[testItem](s.reg,
		Field("ID", Integer, Name("id"), Required()),
		Field("Tags", Array, Name("tags"), Items(String)),
	)
	s.Require().NoError(err)
}

func (s *SerdeSuite) TestRoundTrip() {
	ssl := true
	conn := &testConnection{
		ID:      "c1",
		Name:    "local",
		Driver:  "postgres",
		Options: &testOptions{Host: "localhost", Port: 5432, SSL: &ssl},
		Auth:    &testAuth{Username: "admin"},
		Tags:    []string{"dev", "local"},
		Params:  map[string]any{"application_name": "querydesk"},
	}

	out, err := s.reg.Serialize(conn)
	s.Require().NoError(err)

	decoded, err := s.reg.Deserialize(out, New[testConnection](), "connection")
	s.Require().NoError(err)
	s.Equal(conn, decoded)
}

func (s *SerdeSuite) TestRoundTripThroughJSON() {
	data, err := Marshal(s.reg, &testWorkspace{Connections: []*testConnection{
		{ID: "a", Options: &testOptions{Host: "db", Port: 3306}},
		{ID: "b", Tags: []string{}},
	}})
	s.Require().NoError(err)
	s.JSONEq(`{"connections":[{"id":"a","name":"","options":{"host":"db","port":3306}},{"id":"b","name":"","tags":[]}]}`, string(data))

	ws, err := Unmarshal[testWorkspace](s.reg, data, "workspace")
	s.Require().NoError(err)
	s.Require().Len(ws.Connections, 2)
	s.Equal(3306, ws.Connections[0].Options.Port)
	s.NotNil(ws.Connections[1].Tags)
	s.Empty(ws.Connections[1].Tags)
}

func (s *SerdeSuite) TestRequiredFieldMissing() {
	_, err := Decode[testConnection](s.reg, map[string]any{"name": "x"}, "connection")
	s.Require().Error(err)
	s.True(IsValidation(err))
	s.ErrorIs(err, merr.ErrSerdeValidation)
	s.Equal(merr.Code(merr.ErrSerdeValidation), merr.Code(err))
	s.Contains(err.Error(), `"id"`)
	s.Contains(err.Error(), "connection")

	_, err = Decode[testConnection](s.reg, map[string]any{"id": nil}, "")
	s.Require().Error(err)
	s.Contains(err.Error(), `missing required field "id"`)
}

func (s *SerdeSuite) TestUnknownFieldsIgnored() {
	conn, err := Decode[testConnection](s.reg, map[string]any{
		"id":       "c1",
		"internal": "secret",
		"extra":    map[string]any{"a": 1},
	}, "")
	s.Require().NoError(err)
	s.Equal("c1", conn.ID)
	s.Empty(conn.internal)
}

func (s *SerdeSuite) TestNullOmission() {
	out, err := s.reg.Serialize(&testConnection{ID: "c1"})
	s.Require().NoError(err)

	obj := out.(map[string]any)
	s.Contains(obj, "id")
	s.Contains(obj, "name")
	for _, key := range []string{"driver", "options", "auth", "tags", "params"} {
		s.NotContains(obj, key)
	}

	decoded, err := Decode[testConnection](s.reg, map[string]any{"id": "c1", "options": nil, "tags": nil}, "")
	s.Require().NoError(err)
	s.Nil(decoded.Options)
	s.Nil(decoded.Tags)
}

func (s *SerdeSuite) TestAbsentOptionalFieldSerializes() {
	opts, err := Decode[testOptions](s.reg, map[string]any{"host": "db"}, "options")
	s.Require().NoError(err)
	s.Equal(0, opts.Port)

	out, err := s.reg.Serialize(opts)
	s.Require().NoError(err)
	s.Equal(map[string]any{"host": "db"}, out)

	again, err := s.reg.Deserialize(out, New[testOptions](), "options")
	s.Require().NoError(err)
	s.Equal(opts, again)

	conn, err := Decode[testConnection](s.reg, map[string]any{"id": "c", "options": map[string]any{"host": "db"}}, "")
	s.Require().NoError(err)
	_, err = s.reg.Serialize(conn)
	s.NoError(err)

	_, err = s.reg.Serialize(&testOptions{Host: "db", Port: 70000})
	s.Require().Error(err)
	serr, _ := AsError(err)
	s.Equal("port", serr.Path())

	_, err = s.reg.Serialize(&testAuth{})
	s.Require().Error(err)
	serr, _ = AsError(err)
	s.Equal("username", serr.Path())
}

func (s *SerdeSuite) TestNestedErrorPath() {
	input := map[string]any{
		"connections": []any{
			map[string]any{"id": "a", "auth": map[string]any{"username": "admin"}},
			map[string]any{"id": "b", "auth": map[string]any{"username": "bad user"}},
		},
	}
	_, err := Decode[testWorkspace](s.reg, input, "")
	s.Require().Error(err)

	serr, ok := AsError(err)
	s.Require().True(ok)
	s.Equal(KindValidation, serr.Kind)
	s.Equal("connections[1].auth.username", serr.Path())
	s.Contains(err.Error(), "bad user")

	_, err = Decode[testWorkspace](s.reg, input, "workspace")
	serr, _ = AsError(err)
	s.Equal("workspace.connections[1].auth.username", serr.Path())
}

func (s *SerdeSuite) TestArrayOrderPreserved() {
	input := []any{
		map[string]any{"id": 1},
		map[string]any{"id": 2},
		map[string]any{"id": 3},
	}
	items, err := DecodeSlice[testItem](s.reg, input, "items")
	s.Require().NoError(err)
	s.Require().Len(items, 3)
	for i, item := range items {
		s.Equal(int64(i+1), item.ID)
	}

	out, err := s.reg.Serialize(items)
	s.Require().NoError(err)
	s.Equal([]any{
		map[string]any{"id": int64(1)},
		map[string]any{"id": int64(2)},
		map[string]any{"id": int64(3)},
	}, out)
}

func (s *SerdeSuite) TestArrayOfObjectsScenario() {
	const literal = `[{"id":1,"tags":["x","y"]},{"id":2,"tags":[]}]`
	items, err := UnmarshalSlice[testItem](s.reg, []byte(literal), "items")
	s.Require().NoError(err)
	s.Require().Len(items, 2)
	s.Equal(int64(1), items[0].ID)
	s.Len(items[0].Tags, 2)
	s.Equal(int64(2), items[1].ID)
	s.Len(items[1].Tags, 0)

	data, err := Marshal(s.reg, items)
	s.Require().NoError(err)
	s.Equal(literal, string(data))
}

func (s *SerdeSuite) TestArrayElementErrorIndex() {
	_, err := s.reg.Deserialize([]any{
		map[string]any{"id": 1},
		map[string]any{"id": "x"},
	}, New[testItem](), "items")
	s.Require().Error(err)
	serr, _ := AsError(err)
	s.Equal("items[1].id", serr.Path())

	_, err = s.reg.Deserialize([]any{map[string]any{"id": 1}, "oops"}, New[testItem](), "")
	serr, _ = AsError(err)
	s.Equal("[1]", serr.Path())

	_, err = Decode[testConnection](s.reg, map[string]any{"id": "c", "tags": []any{"ok", ""}}, "")
	serr, _ = AsError(err)
	s.Equal("tags[1]", serr.Path())
}

func (s *SerdeSuite) TestSerializeArrayFailFast() {
	_, err := s.reg.Serialize([]*testConnection{
		{ID: "a"},
		{ID: "b", Driver: "oracle"},
		{ID: "c", Driver: "mysql"},
	})
	s.Require().Error(err)
	serr, _ := AsError(err)
	s.Equal("[1].driver", serr.Path())
	s.Contains(err.Error(), "oracle")

	_, err = s.reg.Serialize(&testConnection{ID: "a", Tags: []string{"x", ""}})
	serr, _ = AsError(err)
	s.Equal("tags[1]", serr.Path())
}

func (s *SerdeSuite) TestStringOptions() {
	conn, err := Decode[testConnection](s.reg, map[string]any{"id": "c", "name": "  padded  "}, "")
	s.Require().NoError(err)
	s.Equal("padded", conn.Name)

	_, err = Decode[testConnection](s.reg, map[string]any{"id": "c", "name": strings.Repeat("x", 17)}, "")
	s.Error(err)

	_, err = Decode[testConnection](s.reg, map[string]any{"id": "c", "driver": "oracle"}, "")
	s.Error(err)

	_, err = Decode[testConnection](s.reg, map[string]any{"id": "c", "name": 12}, "")
	s.Require().Error(err)
	s.Contains(err.Error(), "expected string, got number")
}

func (s *SerdeSuite) TestIntegerCoercion() {
	for _, v := range []any{5432, int64(5432), float64(5432), "5432", json.Number("5432")} {
		opts, err := Decode[testOptions](s.reg, map[string]any{"host": "h", "port": v}, "")
		s.Require().NoError(err, "%v", v)
		s.Equal(5432, opts.Port)
	}

	for _, v := range []any{54.5, "abc", true, 0, 70000} {
		_, err := Decode[testOptions](s.reg, map[string]any{"host": "h", "port": v}, "options")
		s.Require().Error(err, "%v", v)
		serr, _ := AsError(err)
		s.Equal("options.port", serr.Path())
	}
}

func (s *SerdeSuite) TestBooleanCoercion() {
	for v, want := range map[any]bool{true: true, "false": false, "1": true, float64(0): false} {
		opts, err := Decode[testOptions](s.reg, map[string]any{"host": "h", "ssl": v}, "")
		s.Require().NoError(err)
		s.Require().NotNil(opts.SSL)
		s.Equal(want, *opts.SSL)
	}
	_, err := Decode[testOptions](s.reg, map[string]any{"host": "h", "ssl": "yes"}, "")
	s.Error(err)
}

func (s *SerdeSuite) TestIdentifier() {
	conn, err := Decode[testConnection](s.reg, map[string]any{"id": json.Number("42")}, "")
	s.Require().NoError(err)
	s.Equal("42", conn.ID)

	_, err = Decode[testConnection](s.reg, map[string]any{"id": "has space"}, "")
	s.Error(err)
	_, err = Decode[testConnection](s.reg, map[string]any{"id": ""}, "")
	s.Error(err)
	_, err = Decode[testConnection](s.reg, map[string]any{"id": true}, "")
	s.Error(err)

	conn, err = Decode[testConnection](s.reg, map[string]any{"id": "conn-1.prod"}, "")
	s.Require().NoError(err)
	s.Equal("conn-1.prod", conn.ID)

	reg := NewRegistry()
	_, err = Register[testConnection](reg, Field("ID", Identifier, Name("id"), Format(`^[0-9]+$`)))
	s.Require().NoError(err)
	conn, err = Decode[testConnection](reg, map[string]any{"id": 17}, "")
	s.Require().NoError(err)
	s.Equal("17", conn.ID)
	_, err = Decode[testConnection](reg, map[string]any{"id": "a-b"}, "")
	s.Error(err)
}

func (s *SerdeSuite) TestSkipModes() {
	out, err := s.reg.Serialize(&testAuth{Username: "admin", Password: "secret"})
	s.Require().NoError(err)
	s.Equal(map[string]any{"username": "admin"}, out)

	auth, err := Decode[testAuth](s.reg, map[string]any{"username": "admin", "password": "secret"}, "")
	s.Require().NoError(err)
	s.Equal("secret", auth.Password)
}

func (s *SerdeSuite) TestNonObjectInput() {
	_, err := s.reg.Deserialize("text", New[testItem](), "")
	s.Require().Error(err)
	s.True(IsValidation(err))

	_, err = Decode[testItem](s.reg, []any{}, "item")
	s.Error(err)
	_, err = DecodeSlice[testItem](s.reg, map[string]any{}, "items")
	s.Error(err)
	_, err = Unmarshal[testItem](s.reg, []byte(`{"id":`), "item")
	s.True(IsValidation(err))
}

func (s *SerdeSuite) TestUnregisteredModel() {
	type unknown struct{ A string }
	_, err := Decode[unknown](s.reg, map[string]any{}, "")
	s.Require().Error(err)
	s.True(IsConfig(err))
	s.ErrorIs(err, merr.ErrSerdeConfig)
	s.Len(s.notifier.errs, 1)

	_, err = s.reg.Serialize(&unknown{})
	s.True(IsConfig(err))
}

func (s *SerdeSuite) TestLookup() {
	schema, ok := s.reg.Lookup("TESTCONNECTION")
	s.Require().True(ok)
	s.Equal("testConnection", schema.Name())
	s.Equal([]string{"id"}, schema.Required())
	s.Contains(s.reg.Models(), "testItem")
	s.Len(schema.Fields(), 7)
	s.IsType(&testConnection{}, schema.New())
}

func TestSerde(t *testing.T) {
	suite.Run(t, new(SerdeSuite))
}

func TestErrorPathRendering(t *testing.T) {
	err := newValidationError("bad").AddContext("username").AddContext("auth").AddIndex(1).AddContext("connections")
	assert.Equal(t, "connections[1].auth.username", err.Path())
	assert.Equal(t, `serde: validation failed at "connections[1].auth.username": bad`, err.Error())
	assert.Equal(t, "serde: validation failed: bad", newValidationError("bad").Error())
	assert.Equal(t, "[0].id", newValidationError("bad").AddContext("id").AddIndex(0).Path())

	cause := errors.New("boom")
	wrapped := toError(cause).AddContext("field")
	assert.ErrorIs(t, wrapped, cause)
	assert.ErrorIs(t, wrapped, merr.ErrSerdeValidation)
	assert.Equal(t, merr.Code(merr.ErrSerdeValidation), merr.Code(wrapped))

	cfg := newConfigError("Connection", "Options", "object field requires a factory")
	assert.Equal(t, "serde: invalid model declaration Connection.Options: object field requires a factory", cfg.Error())
	assert.ErrorIs(t, cfg, merr.ErrSerdeConfig)
	assert.False(t, errors.Is(cfg, merr.ErrSerdeValidation))
}
