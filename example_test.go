package goSession_test

import (
	"context"
	"fmt"
	"net/http"
	"os"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/apierror"
	"github.com/MrEthical07/goSession/guard"
	"github.com/MrEthical07/goSession/notify"
)

func ExampleNew() {
	client, err := goSession.New().
		WithNotificationSink(notify.NewTerminalSink(os.Stderr, true)).
		WithNavigator(guard.NavigatorFunc(func(context.Context) {
			fmt.Println("show login screen")
		})).
		Build()
	if err != nil {
		panic(err)
	}
	defer client.Close()

	ctx := goSession.WithOperation(context.Background(), "load profile")
	err = client.Run(ctx, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://api.example.com/me", nil)
		if err != nil {
			return err
		}
		resp, err := client.HTTPClient().Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if se := apierror.FromResponse(resp, 0); se != nil {
			return se
		}
		return nil
	}, nil)
	if err != nil {
		fmt.Println("profile unavailable:", err)
	}
}

func ExampleClient_Classify() {
	client, err := goSession.New().WithMetricsEnabled(false).Build()
	if err != nil {
		panic(err)
	}
	defer client.Close()

	env := client.Classify(context.Background(), &apierror.StatusError{Status: http.StatusServiceUnavailable})
	fmt.Println(env.Kind, env.Severity, env.Retryable)
}
