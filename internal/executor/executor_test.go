package executor_test

import (
	"context"
	"database/sql"
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/canonical/sqlmapper/internal/command"
	"github.com/canonical/sqlmapper/internal/executor"
	"github.com/canonical/sqlmapper/internal/method"
	"github.com/canonical/sqlmapper/session"
)

type user struct {
	ID   int
	Name string
}

type insertMapper interface {
	Insert(ctx context.Context, u *user) (int64, error)
}

type findMapper interface {
	FindByID(ctx context.Context, id int) (*user, error)
}

type listMapper interface {
	List(ctx context.Context) ([]user, error)
}

type flushMapper interface {
	Flush(ctx context.Context) error
}

type fakeSession struct {
	insertN      int64
	insertErr    error
	selectOneErr error
	selectOneVal *user
	selectListN  []user
	flushErr     error
	flushed      bool
	lastParam    any
	lastID       string
}

func (f *fakeSession) Insert(ctx context.Context, statementID string, param any) (int64, error) {
	f.lastID, f.lastParam = statementID, param
	return f.insertN, f.insertErr
}
func (f *fakeSession) Update(ctx context.Context, statementID string, param any) (int64, error) {
	return 0, nil
}
func (f *fakeSession) Delete(ctx context.Context, statementID string, param any) (int64, error) {
	return 0, nil
}
func (f *fakeSession) SelectOne(ctx context.Context, statementID string, param any, dest any) error {
	f.lastID, f.lastParam = statementID, param
	if f.selectOneErr != nil {
		return f.selectOneErr
	}
	*dest.(*user) = *f.selectOneVal
	return nil
}
func (f *fakeSession) SelectList(ctx context.Context, statementID string, param any, bounds *session.RowBounds, dest any) error {
	f.lastID, f.lastParam = statementID, param
	*dest.(*[]user) = f.selectListN
	return nil
}
func (f *fakeSession) SelectMap(ctx context.Context, statementID string, param any, mapKey string, bounds *session.RowBounds, dest any) error {
	return nil
}
func (f *fakeSession) SelectCursor(ctx context.Context, statementID string, param any) (session.Cursor, error) {
	return nil, nil
}
func (f *fakeSession) Select(ctx context.Context, statementID string, param any, bounds *session.RowBounds, handler session.ResultHandler) error {
	return nil
}
func (f *fakeSession) FlushStatements(ctx context.Context) error {
	f.flushed = true
	return f.flushErr
}

func methodTypeOf(iface any, name string) reflect.Type {
	t := reflect.TypeOf(iface).Elem()
	m, ok := t.MethodByName(name)
	if !ok {
		panic("no such method: " + name)
	}
	return m.Type
}

func TestInsertReturnsRowCount(t *testing.T) {
	sig, err := method.Analyze(methodTypeOf((*insertMapper)(nil), "Insert"), method.Options{})
	require.NoError(t, err)

	fake := &fakeSession{insertN: 1}
	exec := executor.New(fake)

	inv := &executor.Invocation{
		Command:   &command.Command{Name: "m.Insert", Kind: command.Insert},
		Signature: sig,
		Args:      []reflect.Value{reflect.ValueOf(context.Background()), reflect.ValueOf(&user{Name: "ada"})},
	}
	result, err := exec.Invoke(context.Background(), inv)
	require.NoError(t, err)
	require.Equal(t, int64(1), result.Interface())
	require.Equal(t, "m.Insert", fake.lastID)
}

func TestSelectOneReturnsPointerResult(t *testing.T) {
	sig, err := method.Analyze(methodTypeOf((*findMapper)(nil), "FindByID"), method.Options{})
	require.NoError(t, err)

	fake := &fakeSession{selectOneVal: &user{ID: 7, Name: "ada"}}
	exec := executor.New(fake)

	inv := &executor.Invocation{
		Command:   &command.Command{Name: "m.FindByID", Kind: command.Select},
		Signature: sig,
		Args:      []reflect.Value{reflect.ValueOf(context.Background()), reflect.ValueOf(7)},
	}
	result, err := exec.Invoke(context.Background(), inv)
	require.NoError(t, err)
	got := result.Interface().(*user)
	require.Equal(t, &user{ID: 7, Name: "ada"}, got)
}

func TestSelectOneNoRowsReturnsNilPointer(t *testing.T) {
	sig, err := method.Analyze(methodTypeOf((*findMapper)(nil), "FindByID"), method.Options{})
	require.NoError(t, err)

	fake := &fakeSession{selectOneErr: sql.ErrNoRows}
	exec := executor.New(fake)

	inv := &executor.Invocation{
		Command:   &command.Command{Name: "m.FindByID", Kind: command.Select},
		Signature: sig,
		Args:      []reflect.Value{reflect.ValueOf(context.Background()), reflect.ValueOf(7)},
	}
	result, err := exec.Invoke(context.Background(), inv)
	require.NoError(t, err)
	require.True(t, result.IsNil())
}

func TestSelectListReturnsSlice(t *testing.T) {
	sig, err := method.Analyze(methodTypeOf((*listMapper)(nil), "List"), method.Options{})
	require.NoError(t, err)

	fake := &fakeSession{selectListN: []user{{ID: 1}, {ID: 2}}}
	exec := executor.New(fake)

	inv := &executor.Invocation{
		Command:   &command.Command{Name: "m.List", Kind: command.Select},
		Signature: sig,
		Args:      []reflect.Value{reflect.ValueOf(context.Background())},
	}
	result, err := exec.Invoke(context.Background(), inv)
	require.NoError(t, err)
	require.Equal(t, []user{{ID: 1}, {ID: 2}}, result.Interface())
}

func TestFlushDispatchesToFlushStatements(t *testing.T) {
	sig, err := method.Analyze(methodTypeOf((*flushMapper)(nil), "Flush"), method.Options{})
	require.NoError(t, err)

	fake := &fakeSession{}
	exec := executor.New(fake)

	inv := &executor.Invocation{
		Command:   &command.Command{Kind: command.Flush},
		Signature: sig,
		Args:      []reflect.Value{reflect.ValueOf(context.Background())},
	}
	_, err = exec.Invoke(context.Background(), inv)
	require.NoError(t, err)
	require.True(t, fake.flushed)
}

type recordingInterceptor struct {
	before, after *bool
}

func (r recordingInterceptor) Intercept(ctx context.Context, inv *executor.Invocation, next executor.Invoker) (reflect.Value, error) {
	*r.before = true
	v, err := next(ctx, inv)
	*r.after = true
	return v, err
}

func TestInterceptorChainRunsAroundDispatch(t *testing.T) {
	sig, err := method.Analyze(methodTypeOf((*insertMapper)(nil), "Insert"), method.Options{})
	require.NoError(t, err)

	var before, after bool
	fake := &fakeSession{insertN: 1}
	exec := executor.New(fake, recordingInterceptor{before: &before, after: &after})

	inv := &executor.Invocation{
		Command:   &command.Command{Kind: command.Insert},
		Signature: sig,
		Args:      []reflect.Value{reflect.ValueOf(context.Background()), reflect.ValueOf(&user{})},
	}
	_, err = exec.Invoke(context.Background(), inv)
	require.NoError(t, err)
	require.True(t, before)
	require.True(t, after)
}
