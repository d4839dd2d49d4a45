/*
Package sqlmapper maps declared Go interfaces (expressed here as structs of
func-typed fields, see internal/proxy) onto named SQL statements defined in
external mapper XML documents, in the manner of a MyBatis-style persistence
framework.

An application declares one statement per operation in a mapper document:

	<mapper namespace="myapp/data.UserMapper">
	  <select id="FindByID">SELECT id, name FROM users WHERE id = #{id}</select>
	  <select id="Search">
	    SELECT id, name FROM users
	    <where>
	      <if test="name != null">AND name = #{name}</if>
	    </where>
	  </select>
	  <insert id="Insert">INSERT INTO users (name) VALUES (#{name})</insert>
	</mapper>

and a matching Go type naming the same operations as func fields:

	type UserMapper struct {
		FindByID func(ctx context.Context, id int) (*User, error)
		Search   func(ctx context.Context, name string) ([]User, error)
		Insert   func(ctx context.Context, u *User) (int64, error)
	}

Open loads one or more mapper documents into a registry and wires a
database connection to them; GetMapper then fills a zero-valued mapper
struct's fields with dispatching closures built via reflect.MakeFunc. Go
reflection does not expose parameter names, so a scalar argument such as
id is reachable as #{id} only once GetMapper is given that name through
proxy.Options.MethodOptions (ParamNames: map[int]string{1: "id"}, index 0
being ctx); a lone unnamed struct argument is bound by its db tags. Every
call after that is an ordinary Go function call: m.FindByID(ctx, 7)
evaluates the dynamic-SQL tree behind "FindByID" against the supplied
arguments, binds the result through the type-handler registry, executes it
on the session facade, and shapes the result set back into the declared
return type.

# Template syntax

"${expr}" substitutes the textual result of expr directly into the SQL
text - never parameterized, and the caller's responsibility to keep safe.
"#{expr[,jdbcType=T][,typeHandler=H]}" binds the result of expr as a driver
placeholder parameter, optionally through a named internal/typeinfo
TypeHandler. Elements <if>, <choose>/<when>/<otherwise>, <where>, <set>,
<trim>, <foreach> and <bind> build the rest of the dynamic-SQL tree; see
internal/binding for their exact evaluation rules.

# Packages

internal/eval compiles and evaluates if/when test expressions and foreach
collection expressions. internal/binding holds the node tree, its XML
parser, and the BindingContext that turns a tree and a parameter object
into a BoundSql. internal/typeinfo reflects struct db tags and hosts the
TypeHandler registry. internal/registry loads mapper documents into a
statement table. internal/method analyzes a declared operation's
signature. internal/command resolves an operation name to a statement
kind. internal/executor dispatches a resolved invocation to the session
facade and runs the configured Interceptor chain. internal/proxy builds
and caches the per-mapper-type dispatch engine. session is the
database/sql-backed facade those packages consume.
*/
package sqlmapper
