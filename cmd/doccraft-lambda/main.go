package main

import (
	"context"

	"github.com/Abraxas-365/doccraft/app"
	"github.com/Abraxas-365/doccraft/errx"
	"github.com/Abraxas-365/doccraft/logx"
	"github.com/aws/aws-lambda-go/lambda"
)

func main() {
	logger := logx.GetLogger().With("lambda")

	cfg, err := app.LoadConfig(app.LoadOptions{})
	if err != nil {
		logger.Fatal("%s", errx.Print(err))
	}

	a, err := app.New(context.Background(), cfg, app.WithLogger(logx.GetLogger()))
	if err != nil {
		logger.Fatal("%s", errx.Print(err))
	}

	lambda.Start(NewHandler(a.Loader, a.Output, logger).Handle)
}
