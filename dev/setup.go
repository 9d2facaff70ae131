package main

import (
	devenv "cqscraper/dev/env"
	"cqscraper/internal/components/store"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/exec"

	_ "modernc.org/sqlite"
)

func cmd(name string, args ...string) {
	cmd := exec.Command(name, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	fullCmd := name
	for _, a := range args {
		fullCmd += " "
		fullCmd += a
	}

	fmt.Printf("$ %s\n", fullCmd)
	err := cmd.Run()
	if err != nil {
		os.Exit(1)
	}
}

func CreateLocalStack() error {
	err := os.Chdir("dev/local_stack")
	if err != nil {
		return err
	}
	cmd("docker", "compose", "up", "-d")
	return os.Chdir("../..")
}

// CreateRecordStore creates the sqlite database the sample configuration stores records in.
func CreateRecordStore() error {
	dbpath, err := devenv.ResolvePath("<dev_state>/records.db")
	if err != nil {
		return err
	}

	_, err = os.Stat(dbpath)
	if err == nil {
		fmt.Println("record store already created at", dbpath)
		return nil
	}

	fmt.Println("creating record store at", dbpath)
	db, err := sql.Open("sqlite", dbpath)
	if err != nil {
		return err
	}
	defer db.Close()
	_, err = db.Exec(store.Schema)
	return err
}

const liveTestTemplate = `{
	// credentials for the tests that run against the real sites, leave a username empty to skip its test
	geeksforgeeks: { username: "", password: "", slug: "" },
	codechef: { username: "", password: "", slug: "" },
	interviewbit: { username: "", password: "", slug: "" },
}
`

func CreateLiveTestConfig() error {
	path, err := devenv.GetStateFilePath("sites.json5")
	if err != nil {
		return err
	}
	_, err = os.Stat(path)
	if err == nil {
		return nil
	}
	return os.WriteFile(path, []byte(liveTestTemplate), 0600)
}

func PrintConfigLocations() {
	slog.Info("the live scraper tests read credentials from dev/.state/sites.json5, fill it in and run `go test -v -run TestLive ./internal/scrapers/...` to use them.")
}
