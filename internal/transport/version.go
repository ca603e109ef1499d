package transport

import (
	"context"

	"github.com/blang/semver/v4"
	"go.uber.org/zap"

	"github.com/lk2023060901/querydesk-go/internal/model"
	"github.com/lk2023060901/querydesk-go/pkg/log"
	"github.com/lk2023060901/querydesk-go/pkg/util/merr"
)

const infoPath = "/info"

// ServerInfo 获取后端的版本信息。
func (c *Client) ServerInfo(ctx context.Context) (*model.ServerInfo, error) {
	res, err := c.Get(ctx, infoPath)
	if err != nil {
		return nil, err
	}
	return As[model.ServerInfo](res)
}

// CheckServerVersion 校验后端版本不低于 WithMinVersion 配置的版本，未配置时只做可解析性检查。
func (c *Client) CheckServerVersion(ctx context.Context) (*model.ServerInfo, error) {
	info, err := c.ServerInfo(ctx)
	if err != nil {
		return nil, err
	}
	actual, err := semver.ParseTolerant(info.Version)
	if err != nil {
		return nil, merr.WrapErrServiceIncompatible(info.Version, c.opt.minVersion, "unparsable server version")
	}
	if c.opt.minVersion == "" {
		return info, nil
	}
	required, err := semver.ParseTolerant(c.opt.minVersion)
	if err != nil {
		return nil, merr.WrapErrParameterInvalidMsg("invalid minimum version %q", c.opt.minVersion)
	}
	if actual.LT(required) {
		return nil, merr.WrapErrServiceIncompatible(actual.String(), ">="+required.String())
	}
	log.Ctx(ctx).Debug("server version accepted",
		zap.String("version", actual.String()),
		zap.String("required", required.String()))
	return info, nil
}
