package extract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cortex/internal/entity"
)

func extractAll(t *testing.T, src string) []entity.Record {
	t.Helper()
	records, err := New(nil).Extract(context.Background(), []byte(src), "sample.py")
	require.NoError(t, err)
	return records
}

func byKey(records []entity.Record) map[string]entity.Record {
	out := make(map[string]entity.Record, len(records))
	for _, r := range records {
		out[r.Key("code:t")] = r
	}
	return out
}

func TestExtractClassWithMethodsAndVariables(t *testing.T) {
	src := `
MAX_RETRIES = 3

class UserStore:
    """Persists users."""

    table = "users"

    def __init__(self, conn):
        self.conn = conn

    def get(self, user_id: int) -> "User":
        """Fetch one user."""
        return self.conn.get(user_id)

    def save(self, user, *, force=False):
        pass


def make_store(conn) -> "UserStore":
    return UserStore(conn)
`
	records := extractAll(t, src)
	keyed := byKey(records)

	require.Len(t, records, 7)

	cls, ok := keyed["code:t:class:sample.py:UserStore"]
	require.True(t, ok)
	assert.Equal(t, "Persists users.", cls.Docstring)
	assert.Empty(t, cls.Bases)

	tableVar, ok := keyed["code:t:variable:sample.py:table"]
	require.True(t, ok)
	assert.Equal(t, "UserStore", tableVar.ParentClass)
	assert.Equal(t, `"users"`, tableVar.ValueRepr)

	get, ok := keyed["code:t:method:sample.py:UserStore.get"]
	require.True(t, ok)
	assert.Equal(t, "UserStore", get.ParentClass)
	assert.Equal(t, `def get(self, user_id: int) -> "User"`, get.Signature)
	assert.Equal(t, "Fetch one user.", get.Docstring)

	save, ok := keyed["code:t:method:sample.py:UserStore.save"]
	require.True(t, ok)
	assert.Equal(t, "def save(self, user, *, force=False)", save.Signature)
	assert.Empty(t, save.Docstring)

	fn, ok := keyed["code:t:function:sample.py:make_store"]
	require.True(t, ok)
	assert.Empty(t, fn.ParentClass)
	assert.Equal(t, `def make_store(conn) -> "UserStore"`, fn.Signature)

	topVar, ok := keyed["code:t:variable:sample.py:MAX_RETRIES"]
	require.True(t, ok)
	assert.Empty(t, topVar.ParentClass)
	assert.Equal(t, "3", topVar.ValueRepr)
}

func TestKeysAreUniquePerFile(t *testing.T) {
	src := `
class Worker:
    def run(self):
        pass

class Manager:
    def run(self):
        pass
`
	records := extractAll(t, src)
	seen := make(map[string]bool)
	for _, r := range records {
		key := r.Key("code:t")
		assert.False(t, seen[key], "duplicate key %s", key)
		seen[key] = true
	}
	assert.True(t, seen["code:t:method:sample.py:Worker.run"])
	assert.True(t, seen["code:t:method:sample.py:Manager.run"])
}

func TestNestedDefinitionsSkipped(t *testing.T) {
	src := `
def outer():
    def inner():
        pass
    class Hidden:
        pass
    return inner

class Top:
    class Inner:
        pass
`
	keyed := byKey(extractAll(t, src))

	assert.Contains(t, keyed, "code:t:function:sample.py:outer")
	assert.Contains(t, keyed, "code:t:class:sample.py:Top")
	assert.NotContains(t, keyed, "code:t:function:sample.py:inner")
	assert.NotContains(t, keyed, "code:t:class:sample.py:Hidden")
	assert.NotContains(t, keyed, "code:t:class:sample.py:Inner")
}

func TestDecoratedDefinitions(t *testing.T) {
	src := `
@lru_cache(maxsize=None)
def cached(x):
    pass

class Service:
    @property
    def name(self):
        return self._name
`
	keyed := byKey(extractAll(t, src))

	assert.Contains(t, keyed, "code:t:function:sample.py:cached")
	name, ok := keyed["code:t:method:sample.py:Service.name"]
	require.True(t, ok)
	assert.Equal(t, "def name(self)", name.Signature)
}

func TestMultiLineSignatureCollapses(t *testing.T) {
	src := `
def configure(
    host: str,
    port: int = 8080,
    *args,
    **kwargs,
) -> dict:
    pass
`
	keyed := byKey(extractAll(t, src))
	fn := keyed["code:t:function:sample.py:configure"]
	assert.Equal(t,
		"def configure(host: str, port: int = 8080, *args, **kwargs) -> dict",
		fn.Signature)
}

func TestClassBases(t *testing.T) {
	src := `
class Plain:
    pass

class Derived(Base, abc.ABC, metaclass=Meta):
    pass

class Generic(List[int]):
    pass
`
	keyed := byKey(extractAll(t, src))

	assert.Empty(t, keyed["code:t:class:sample.py:Plain"].Bases)
	assert.Equal(t, []string{"Base", "abc.ABC"}, keyed["code:t:class:sample.py:Derived"].Bases)
	assert.Equal(t, []string{"<complex>"}, keyed["code:t:class:sample.py:Generic"].Bases)
}

func TestVariableValueRepr(t *testing.T) {
	src := `
NAME = "cortex"
COUNT = 42
RATIO = 0.5
FLAG = True
EMPTY = None
ITEMS = [1, 2, 3]
PAIRS = {"a": 1}
POINT = (1, 2)
COMPUTED = make_thing(1)
annotated: int = 5
a, b = 1, 2
`
	keyed := byKey(extractAll(t, src))

	assert.Equal(t, `"cortex"`, keyed["code:t:variable:sample.py:NAME"].ValueRepr)
	assert.Equal(t, "42", keyed["code:t:variable:sample.py:COUNT"].ValueRepr)
	assert.Equal(t, "0.5", keyed["code:t:variable:sample.py:RATIO"].ValueRepr)
	assert.Equal(t, "True", keyed["code:t:variable:sample.py:FLAG"].ValueRepr)
	assert.Equal(t, "None", keyed["code:t:variable:sample.py:EMPTY"].ValueRepr)
	assert.Equal(t, "[...]", keyed["code:t:variable:sample.py:ITEMS"].ValueRepr)
	assert.Equal(t, "{...}", keyed["code:t:variable:sample.py:PAIRS"].ValueRepr)
	assert.Equal(t, "[...]", keyed["code:t:variable:sample.py:POINT"].ValueRepr)
	assert.Equal(t, "<complex>", keyed["code:t:variable:sample.py:COMPUTED"].ValueRepr)

	// Annotated and tuple assignments are not variables here.
	assert.NotContains(t, keyed, "code:t:variable:sample.py:annotated")
	assert.NotContains(t, keyed, "code:t:variable:sample.py:a")
}

func TestDocstringOnlyLeadingString(t *testing.T) {
	src := `
def documented():
    """Does things."""
    return 1

def undocumented():
    x = "not a docstring"
    return x

def late_string():
    pass
    "also not a docstring"
`
	keyed := byKey(extractAll(t, src))

	assert.Equal(t, "Does things.", keyed["code:t:function:sample.py:documented"].Docstring)
	assert.Empty(t, keyed["code:t:function:sample.py:undocumented"].Docstring)
	assert.Empty(t, keyed["code:t:function:sample.py:late_string"].Docstring)
}

func TestLineNumbersAreOneBased(t *testing.T) {
	src := "def first():\n    pass\n"
	records := extractAll(t, src)
	require.Len(t, records, 1)
	assert.Equal(t, 1, records[0].LineStart)
	assert.Equal(t, 2, records[0].LineEnd)
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(nil).Extract(ctx, []byte("def f():\n    pass\n"), "sample.py")
	assert.Error(t, err)
}

func TestSyntaxErrorsDontAbortFile(t *testing.T) {
	src := `
def good():
    pass

def broken(:
    pass

def also_good():
    pass
`
	records, err := New(nil).Extract(context.Background(), []byte(src), "sample.py")
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, r := range records {
		names[r.Name] = true
	}
	assert.True(t, names["good"])
	assert.True(t, names["also_good"])
}
