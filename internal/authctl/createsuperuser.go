// Package authctl implements the administrative commands of the auth
// service.
package authctl

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/dmitrijs2005/moviesauth/internal/common"
	"github.com/dmitrijs2005/moviesauth/internal/flagx"
	"github.com/dmitrijs2005/moviesauth/internal/server/models"
	"github.com/dmitrijs2005/moviesauth/internal/server/services"
)

var ErrUnknownCommand = errors.New("unknown command")

type SuperuserCreator interface {
	CreateSuperuser(ctx context.Context, in services.RegisterInput) (*models.User, error)
}

// Run dispatches args[0]. Only createsuperuser exists today.
func Run(ctx context.Context, users SuperuserCreator, args []string, in io.Reader, out io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: usage: authctl createsuperuser [-login L] [-first-name F] [-last-name N] [-continent C]", ErrUnknownCommand)
	}
	switch args[0] {
	case "createsuperuser":
		return CreateSuperuser(ctx, users, args[1:], bufio.NewReader(in), out)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCommand, args[0])
	}
}

// CreateSuperuser prompts for anything not given as a flag and for the
// password twice.
func CreateSuperuser(ctx context.Context, users SuperuserCreator, args []string, reader *bufio.Reader, out io.Writer) error {
	fs := flag.NewFlagSet("createsuperuser", flag.ContinueOnError)
	fs.SetOutput(out)
	login := fs.String("login", "", "login of the new superuser")
	firstName := fs.String("first-name", "", "first name")
	lastName := fs.String("last-name", "", "last name")
	continent := fs.String("continent", string(models.DefaultContinent), "continent partition of the account")
	if err := fs.Parse(filterOwnFlags(args)); err != nil {
		return err
	}

	var err error
	if *login == "" {
		if *login, err = GetSimpleText(reader, "Login", out); err != nil {
			return err
		}
	}

	pw, err := GetPassword("Password", out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pw)

	confirm, err := GetPassword("Password (again)", out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(confirm)

	if !bytes.Equal(pw, confirm) {
		return fmt.Errorf("%w: passwords do not match", common.ErrValidation)
	}

	u, err := users.CreateSuperuser(ctx, services.RegisterInput{
		Login:     *login,
		Password:  string(pw),
		FirstName: *firstName,
		LastName:  *lastName,
		Continent: models.Continent(*continent),
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Superuser %s created (id=%s)\n", u.Login, u.ID)
	return nil
}

// filterOwnFlags drops the server config flags that share os.Args.
func filterOwnFlags(args []string) []string {
	return flagx.FilterArgs(args, []string{"-login", "-first-name", "-last-name", "-continent"})
}
