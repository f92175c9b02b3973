package main

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/mfadhilr/wikiclient/internal/models"
)

func promptLine(in *bufio.Scanner, label string) string {
	fmt.Print(label)
	in.Scan()
	return strings.TrimSpace(in.Text())
}

// promptUser collects the fields of an account form.
func promptUser(in *bufio.Scanner) *models.User {
	u := &models.User{}
	u.Name = promptLine(in, "Name: ")
	u.Email = promptLine(in, "Email: ")
	u.Password = promptLine(in, "Password: ")
	u.RoleID, _ = strconv.Atoi(promptLine(in, "Role ID: "))
	u.InstanceID, _ = strconv.ParseInt(promptLine(in, "Instance ID: "), 10, 64)
	return u
}

// promptContent collects the editable fields of an article.
func promptContent(in *bufio.Scanner) *models.Content {
	c := &models.Content{}
	c.Title = promptLine(in, "Title: ")
	c.Description = promptLine(in, "Description: ")
	c.Tag = promptLine(in, "Tags (comma-separated): ")

	access := promptLine(in, "Accessibility (public/private_instance/all_instance) [public]: ")
	switch access {
	case models.AccessPrivateInstance, models.AccessAllInstance:
		c.Accessibility = access
	default:
		c.Accessibility = models.AccessPublic
	}
	return c
}
