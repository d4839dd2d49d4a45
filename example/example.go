// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package example shows the smallest end-to-end use of sqlmapper: a mapper
// document, a struct-of-func-fields mapper type, and CRUD calls routed
// through it against an in-memory sqlite3 database.
package example

import (
	"context"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/canonical/sqlmapper"
	"github.com/canonical/sqlmapper/internal/method"
	"github.com/canonical/sqlmapper/internal/proxy"
)

// Person is the row shape for the "person" table. db tags name the
// binding-environment keys mapper statements reference with #{...}.
type Person struct {
	ID   int    `db:"id"`
	Name string `db:"name"`
	Team string `db:"team"`
}

// PersonMapper is bound by sqlmapper.GetMapper: every exported func field
// becomes a dispatching call into the statement named
// "github.com/canonical/sqlmapper/example.PersonMapper.<FieldName>".
type PersonMapper struct {
	Insert     func(ctx context.Context, p *Person) (int64, error)
	FindByID   func(ctx context.Context, id int) (*Person, error)
	FindByTeam func(ctx context.Context, team string) ([]Person, error)
}

const personMapperXML = `
<mapper namespace="github.com/canonical/sqlmapper/example.PersonMapper">
  <insert id="Insert">INSERT INTO person (name, team) VALUES (#{name}, #{team})</insert>
  <select id="FindByID">SELECT id, name, team FROM person WHERE id = #{id}</select>
  <select id="FindByTeam">
    SELECT id, name, team FROM person
    <where>
      <if test="team != null">team = #{team}</if>
    </where>
    ORDER BY name
  </select>
</mapper>
`

const createPersonTable = `
CREATE TABLE person (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	team TEXT NOT NULL
)`

func example() error {
	m, err := sqlmapper.Open("sqlite3", ":memory:", &sqlmapper.Config{})
	if err != nil {
		return err
	}
	defer m.Close()

	ctx := context.Background()
	if _, err := m.DB().ExecContext(ctx, createPersonTable); err != nil {
		return err
	}
	if err := m.LoadMapper(strings.NewReader(personMapperXML)); err != nil {
		return err
	}

	persons, err := sqlmapper.GetMapper[PersonMapper](m, proxy.Options{
		MethodOptions: map[string]method.Options{
			"FindByID":   {ParamNames: map[int]string{1: "id"}},
			"FindByTeam": {ParamNames: map[int]string{1: "team"}},
		},
	})
	if err != nil {
		return err
	}

	for _, p := range []Person{
		{Name: "Ada Lovelace", Team: "engineering"},
		{Name: "Grace Hopper", Team: "engineering"},
		{Name: "Margaret Hamilton", Team: "flight software"},
	} {
		if _, err := persons.Insert(ctx, &p); err != nil {
			return err
		}
	}

	engineers, err := persons.FindByTeam(ctx, "engineering")
	if err != nil {
		return err
	}
	for _, p := range engineers {
		fmt.Printf("%d: %s (%s)\n", p.ID, p.Name, p.Team)
	}

	hamilton, err := persons.FindByID(ctx, 3)
	if err != nil {
		return err
	}
	fmt.Printf("found: %s\n", hamilton.Name)
	return nil
}
