// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package demo walks through a slightly larger scenario than example:
// two tables, each with its own mapper, and a dynamic <where> clause, all
// driven through mapper statements rather than hand-written SQL.
package demo

import (
	"context"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/canonical/sqlmapper"
	"github.com/canonical/sqlmapper/internal/method"
	"github.com/canonical/sqlmapper/internal/proxy"
)

// Person is a row in the "people" table.
type Person struct {
	Name     string `db:"name"`
	Height   int    `db:"height_cm"`
	HomeTown string `db:"home_town"`
}

// Place is a row in the "location" table.
type Place struct {
	Name       string `db:"town_name"`
	Population int    `db:"population"`
}

// PeopleMapper resolves against statements declared under its fully
// qualified name in demoMapperXML.
type PeopleMapper struct {
	Insert       func(ctx context.Context, p *Person) (int64, error)
	TallerThan   func(ctx context.Context, heightCM int) ([]Person, error)
	TallerInTown func(ctx context.Context, heightCM int, homeTown string) ([]Person, error)
}

// PlaceMapper resolves against statements declared under its fully
// qualified name in demoMapperXML.
type PlaceMapper struct {
	Insert     func(ctx context.Context, p *Place) (int64, error)
	LargerThan func(ctx context.Context, population int) ([]Place, error)
}

const demoMapperXML = `
<mapper namespace="github.com/canonical/sqlmapper/demo.PeopleMapper">
  <insert id="Insert">INSERT INTO people (name, height_cm, home_town) VALUES (#{name}, #{height_cm}, #{home_town})</insert>
  <select id="TallerThan">
    SELECT name, height_cm, home_town FROM people
    WHERE height_cm &gt; #{heightCM}
    ORDER BY height_cm DESC
  </select>
  <select id="TallerInTown">
    SELECT name, height_cm, home_town FROM people
    <where>
      height_cm &gt; #{heightCM}
      <if test="homeTown != null">AND home_town = #{homeTown}</if>
    </where>
    ORDER BY height_cm DESC
  </select>
</mapper>
<mapper namespace="github.com/canonical/sqlmapper/demo.PlaceMapper">
  <insert id="Insert">INSERT INTO location (town_name, population) VALUES (#{town_name}, #{population})</insert>
  <select id="LargerThan">
    SELECT town_name, population FROM location
    WHERE population &gt; #{population}
    ORDER BY population DESC
  </select>
</mapper>
`

const createDemoTables = `
CREATE TABLE people (
	name TEXT NOT NULL,
	height_cm INTEGER NOT NULL,
	home_town TEXT NOT NULL
);
CREATE TABLE location (
	town_name TEXT NOT NULL,
	population INTEGER NOT NULL
);`

func example() error {
	m, err := sqlmapper.Open("sqlite3", ":memory:", &sqlmapper.Config{})
	if err != nil {
		return err
	}
	defer m.Close()

	ctx := context.Background()
	for _, stmt := range strings.Split(createDemoTables, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := m.DB().ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	if err := m.LoadMapper(strings.NewReader(demoMapperXML)); err != nil {
		return err
	}

	people, err := sqlmapper.GetMapper[PeopleMapper](m, proxy.Options{
		MethodOptions: map[string]method.Options{
			"TallerThan":   {ParamNames: map[int]string{1: "heightCM"}},
			"TallerInTown": {ParamNames: map[int]string{1: "heightCM", 2: "homeTown"}},
		},
	})
	if err != nil {
		return err
	}
	places, err := sqlmapper.GetMapper[PlaceMapper](m, proxy.Options{
		MethodOptions: map[string]method.Options{
			"LargerThan": {ParamNames: map[int]string{1: "population"}},
		},
	})
	if err != nil {
		return err
	}

	for _, p := range []Person{
		{Name: "Aneka", Height: 180, HomeTown: "Glasgow"},
		{Name: "Bea", Height: 170, HomeTown: "Bristol"},
		{Name: "Cass", Height: 195, HomeTown: "Glasgow"},
	} {
		if _, err := people.Insert(ctx, &p); err != nil {
			return err
		}
	}
	for _, p := range []Place{
		{Name: "Glasgow", Population: 635000},
		{Name: "Bristol", Population: 472000},
	} {
		if _, err := places.Insert(ctx, &p); err != nil {
			return err
		}
	}

	tall, err := people.TallerThan(ctx, 175)
	if err != nil {
		return err
	}
	for _, p := range tall {
		fmt.Printf("%s is %dcm, from %s\n", p.Name, p.Height, p.HomeTown)
	}

	tallInGlasgow, err := people.TallerInTown(ctx, 175, "Glasgow")
	if err != nil {
		return err
	}
	fmt.Printf("taller than 175cm in Glasgow: %d\n", len(tallInGlasgow))

	big, err := places.LargerThan(ctx, 500000)
	if err != nil {
		return err
	}
	for _, p := range big {
		fmt.Printf("%s has population %d\n", p.Name, p.Population)
	}
	return nil
}
